package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/apiarium/apiary/storage/model"
)

// newHiveLocation marks a hive that was created but never visited; the
// initial visit carries it so the hive shows up in the location overview
// right away.
const newHiveLocation = "NEW"

func (h *handlers) locations(c *fiber.Ctx) error {
	locations, err := h.storages.Visits.LocationSummary()
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"locations": locations})
}

func (h *handlers) hivesByLocation(c *fiber.Ctx) error {
	location := c.Query("location")
	if location == "" {
		return validationError(c, "Location required")
	}
	hives, err := h.storages.Visits.HivesByLocation(location)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"location": location, "hives": hives})
}

func (h *handlers) hive(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	hive, err := h.storages.Hives.Get(id)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "Hive not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"hive": hive})
}

// hiveCreate inserts the hive together with an initial visit, so the new
// hive immediately has a location and a latest-visit row.
func (h *handlers) hiveCreate(c *fiber.Ctx) error {
	var req struct {
		Number   string `json:"number"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil || req.Number == "" {
		return validationError(c, "Number required")
	}
	if req.Location == "" {
		req.Location = newHiveLocation
	}
	hive, err := h.storages.Hives.Create(req.Number, false)
	if err != nil {
		return serverError(c, err)
	}
	initial := model.Visit{
		HiveID:   hive.ID,
		Date:     time.Now().Format("2006-01-02"),
		Location: &req.Location,
	}
	if _, err = h.storages.Visits.Create(initial); err != nil {
		log.WithError(err).WithField("hive_id", hive.ID).
			Error("failed to create initial visit for new hive")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": hive.ID})
}

func (h *handlers) hiveUpdate(c *fiber.Ctx) error {
	var req struct {
		ID       uint   `json:"id"`
		Number   string `json:"number"`
		Inactive bool   `json:"inactive"`
	}
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return validationError(c, "Valid id required")
	}
	if req.Number == "" {
		return validationError(c, "Number required")
	}
	if err := h.storages.Hives.Update(req.ID, req.Number, req.Inactive); err != nil {
		if isNotFound(err) {
			return notFound(c, "Hive not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
