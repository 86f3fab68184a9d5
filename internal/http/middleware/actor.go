package middleware

import (
	"github.com/gofiber/fiber/v2"

	"clinsim/internal/model"
)

const (
	// ActorIDHeader carries the authenticated account id set by the
	// fronting auth layer (token issuance is out of scope here).
	ActorIDHeader = "X-Actor-Id"
	// ActorRoleHeader carries the account's role tier.
	ActorRoleHeader = "X-Actor-Role"
	// ActorGroupHeader carries the student group id; empty for staff.
	ActorGroupHeader = "X-Actor-Group"

	// ActorLocalKey is the key under which the parsed actor is stored in
	// Fiber's context locals.
	ActorLocalKey = "actor"
)

// Actor is a middleware that parses the viewer identity headers into a
// model.Actor and stores it in context locals. Requests without a usable
// identity are rejected up front so handlers can assume a valid actor.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := model.Actor{
			AccountID: c.Get(ActorIDHeader),
			Role:      model.Role(c.Get(ActorRoleHeader)),
			GroupID:   c.Get(ActorGroupHeader),
		}
		if actor.AccountID == "" || !actor.Role.Valid() {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid actor identity")
		}

		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// ActorFromCtx extracts the actor previously stored by Actor. The zero
// Actor is returned when the middleware did not run.
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	if v := c.Locals(ActorLocalKey); v != nil {
		if a, ok := v.(model.Actor); ok {
			return a
		}
	}
	return model.Actor{}
}
