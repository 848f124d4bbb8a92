package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"github.com/apiarium/apiary/storage/model"
)

// visitHistoryLimit caps how many past visits the hive detail view loads.
const visitHistoryLimit = 20

func (h *handlers) visitsByHive(c *fiber.Ctx) error {
	hiveID, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	hive, err := h.storages.Hives.Get(hiveID)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "Hive not found")
		}
		return serverError(c, err)
	}
	visits, err := h.storages.Visits.ListByHive(hiveID, visitHistoryLimit)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"hive": hive, "visits": visits})
}

func (h *handlers) visit(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	visit, err := h.storages.Visits.Get(id)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "Visit not found")
		}
		return serverError(c, err)
	}
	var queen *model.Queen
	if visit.QueenID != nil {
		if queen, err = h.storages.Queens.Get(*visit.QueenID); err != nil {
			if !isNotFound(err) {
				return serverError(c, err)
			}
			queen = nil
		}
	}
	return c.JSON(fiber.Map{"visit": visit, "queen": queen})
}

// visitDefaults prefills the new-visit form: the full state of the
// hive's latest visit, observations included, with the date replaced by
// today's.
func (h *handlers) visitDefaults(c *fiber.Ctx) error {
	hiveID, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	last, err := h.storages.Visits.LastForHive(hiveID)
	if err != nil {
		return serverError(c, err)
	}
	defaults := model.Visit{HiveID: hiveID}
	if last != nil {
		defaults = *last
		defaults.ID = 0
		defaults.HiveID = hiveID
		defaults.CreatedAt = time.Time{}
		defaults.UpdatedAt = time.Time{}
	}
	defaults.Date = time.Now().Format("2006-01-02")
	return c.JSON(fiber.Map{"defaults": defaults, "has_last_visit": last != nil})
}

// visitRequest is the writable visit shape; the id is only consulted on
// update, the hive id only on create.
type visitRequest struct {
	ID      uint  `json:"id"`
	HiveID  uint  `json:"hive_id"`
	QueenID *uint `json:"queen_id"`

	Date           string  `json:"date"`
	Location       *string `json:"location"`
	BoxSetup       *string `json:"box_setup"`
	ColonyStrength *string `json:"colony_strength"`
	QueenStatus    *string `json:"queen_status"`

	BroodEggs   *string `json:"brood_eggs"`
	BroodOpen   *string `json:"brood_open"`
	BroodCapped *string `json:"brood_capped"`

	Gentleness     *string `json:"gentleness"`
	CombSteadiness *string `json:"comb_steadiness"`
	SwarmTendency  *string `json:"swarm_tendency"`

	Honey *string `json:"honey"`
	Feed  *string `json:"feed"`

	Notes *string `json:"notes"`
	Todo  *string `json:"todo"`

	Extra datatypes.JSON `json:"extra"`
}

func (r visitRequest) visit() model.Visit {
	return model.Visit{
		HiveID:         r.HiveID,
		QueenID:        r.QueenID,
		Date:           r.Date,
		Location:       r.Location,
		BoxSetup:       r.BoxSetup,
		ColonyStrength: r.ColonyStrength,
		QueenStatus:    r.QueenStatus,
		BroodEggs:      r.BroodEggs,
		BroodOpen:      r.BroodOpen,
		BroodCapped:    r.BroodCapped,
		Gentleness:     r.Gentleness,
		CombSteadiness: r.CombSteadiness,
		SwarmTendency:  r.SwarmTendency,
		Honey:          r.Honey,
		Feed:           r.Feed,
		Notes:          r.Notes,
		Todo:           r.Todo,
		Extra:          r.Extra,
	}
}

func (h *handlers) visitCreate(c *fiber.Ctx) error {
	var req visitRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body")
	}
	if req.HiveID == 0 {
		return validationError(c, "hive_id required")
	}
	if _, err := h.storages.Hives.Get(req.HiveID); err != nil {
		if isNotFound(err) {
			return notFound(c, "Hive not found")
		}
		return serverError(c, err)
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	visit, err := h.storages.Visits.Create(req.visit())
	if err != nil {
		return serverError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": visit.ID})
}

func (h *handlers) visitUpdate(c *fiber.Ctx) error {
	var req visitRequest
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return validationError(c, "Valid id required")
	}
	if err := h.storages.Visits.Update(req.ID, req.visit()); err != nil {
		if isNotFound(err) {
			return notFound(c, "Visit not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *handlers) visitDelete(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	if err := h.storages.Visits.Delete(id); err != nil {
		if isNotFound(err) {
			return notFound(c, "Visit not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
