package web

import (
	"github.com/gofiber/fiber/v2"
)

// PagesHandler serves pages that need no ticket data.
type PagesHandler struct{}

// NewPagesHandler returns a new handler instance.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Home GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{
		"Title": "Home",
		"Nav":   "home",
	}, layout)
}
