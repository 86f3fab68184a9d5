package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"clinsim/internal/http/middleware"
	"clinsim/internal/model"
	"clinsim/internal/service"
)

// Services bundles the core services the HTTP layer exposes.
type Services struct {
	Files      service.FileService
	Requests   service.RequestService
	Visibility service.VisibilityService
	Access     service.AccessService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parse, delegate, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services, presignExpiry time.Duration) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Every domain route requires a resolved actor identity.
	actor := middleware.Actor()

	app.Post("/patients/:patientID/requests", actor, SubmitRequest(svcs.Requests))
	app.Get("/patients/:patientID/requests", actor, ListPatientRequests(svcs.Requests))
	app.Get("/requests/:id", actor, GetRequest(svcs.Requests))
	app.Post("/requests/:id/approve", actor, ApproveRequest(svcs.Requests))

	app.Post("/patients/:patientID/files", actor, UploadFile(svcs.Files))
	app.Get("/patients/:patientID/files", actor, ListPatientFiles(svcs.Files))
	app.Get("/files/:fileID", actor, GetFile(svcs.Files))
	app.Patch("/files/:fileID", actor, ReclassifyFile(svcs.Files))
	app.Delete("/files/:fileID", actor, DeleteFile(svcs.Files))
	app.Get("/files/:fileID/access", actor, EvaluateAccess(svcs.Access))
	app.Get("/files/:fileID/download", actor, DownloadFile(svcs.Files, presignExpiry))

	app.Get("/files/:fileID/visibility", actor, ListVisibilityOverrides(svcs.Visibility))
	app.Put("/files/:fileID/visibility", actor, SetVisibility(svcs.Visibility))
	app.Put("/visibility/bulk", actor, BulkSetVisibility(svcs.Visibility))
	app.Get("/files/:fileID/visibility/audit", actor, VisibilityAudit(svcs.Visibility))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

type submitRequestBody struct {
	Kind        model.RequestKind `json:"kind"`
	TestType    string            `json:"test_type"`
	Reason      string            `json:"reason"`
	SignOffName string            `json:"sign_off_name"`
	SignOffRole string            `json:"sign_off_role"`
}

// SubmitRequest files a new investigation request for the actor's group.
func SubmitRequest(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, ok := pathUUID(c, "patientID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body submitRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		req, err := svc.Submit(c.UserContext(), middleware.ActorFromCtx(c), service.SubmitRequestInput{
			PatientID:   patientID,
			Kind:        body.Kind,
			TestType:    body.TestType,
			Reason:      body.Reason,
			SignOffName: body.SignOffName,
			SignOffRole: body.SignOffRole,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

// ListPatientRequests returns every request raised against a patient.
func ListPatientRequests(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, ok := pathUUID(c, "patientID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		reqs, err := svc.ListByPatient(c.UserContext(), patientID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": reqs})
	}
}

// GetRequest returns one request with its grants.
func GetRequest(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}

type approveRequestBody struct {
	Grants []service.GrantInput `json:"grants"`
}

// ApproveRequest completes a pending request, recording the granted files
// and optional page ranges.
func ApproveRequest(svc service.RequestService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body approveRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		req, err := svc.Approve(c.UserContext(), middleware.ActorFromCtx(c), id, body.Grants)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}

// UploadFile registers a patient file (multipart/form-data, field name: file).
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, ok := pathUUID(c, "patientID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		in := service.RegisterFileInput{
			PatientID:          patientID,
			Category:           model.FileCategory(c.FormValue("category", string(model.CategoryOther))),
			RequiresPagination: c.FormValue("requires_pagination") == "true",
		}
		if pc := c.FormValue("page_count"); pc != "" {
			n, err := strconv.Atoi(pc)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_COUNT", "invalid page count")
			}
			in.PageCount = &n
		}

		file, err := svc.Register(c.UserContext(), middleware.ActorFromCtx(c), in, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// ListPatientFiles lists a patient's files with limit & offset.
func ListPatientFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patientID, ok := pathUUID(c, "patientID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.ListByPatient(c.UserContext(), patientID, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetFile returns file metadata by ID.
func GetFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		file, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(file)
	}
}

type reclassifyBody struct {
	Category           model.FileCategory `json:"category"`
	RequiresPagination bool               `json:"requires_pagination"`
	PageCount          *int               `json:"page_count"`
}

// ReclassifyFile corrects a file's category and pagination metadata.
func ReclassifyFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body reclassifyBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		file, err := svc.Reclassify(c.UserContext(), middleware.ActorFromCtx(c), id, body.Category, body.RequiresPagination, body.PageCount)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(file)
	}
}

// DeleteFile removes a file and prunes its visibility overrides.
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// EvaluateAccess answers whether the calling viewer may see the file and
// which pages.
func EvaluateAccess(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		decision, err := svc.Evaluate(c.UserContext(), middleware.ActorFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(decision)
	}
}

// DownloadFile returns a presigned URL for the file if the viewer's access
// evaluation allows anything.
func DownloadFile(svc service.FileService, expiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, decision, err := svc.Download(c.UserContext(), middleware.ActorFromCtx(c), id, expiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url, "access": decision})
	}
}

// ListVisibilityOverrides returns the current per-group overrides for a file.
func ListVisibilityOverrides(svc service.VisibilityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		overrides, err := svc.Overrides(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": overrides})
	}
}

type setVisibilityBody struct {
	GroupID string `json:"group_id"`
	Visible bool   `json:"visible"`
}

// SetVisibility writes one show/hide override for a (file, group) pair.
func SetVisibility(svc service.VisibilityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body setVisibilityBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if err := svc.Set(c.UserContext(), middleware.ActorFromCtx(c), id, body.GroupID, body.Visible); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

type bulkSetVisibilityBody struct {
	FileIDs []string `json:"file_ids"`
	GroupID string   `json:"group_id"`
	Visible bool     `json:"visible"`
}

// BulkSetVisibility applies one override to many files, all-or-nothing.
func BulkSetVisibility(svc service.VisibilityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body bulkSetVisibilityBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if err := svc.BulkSet(c.UserContext(), middleware.ActorFromCtx(c), body.FileIDs, body.GroupID, body.Visible); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// VisibilityAudit returns the override audit trail for a file.
func VisibilityAudit(svc service.VisibilityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathUUID(c, "fileID")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		records, err := svc.Audit(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": records})
	}
}

// pathUUID reads and validates a UUID path parameter.
func pathUUID(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
