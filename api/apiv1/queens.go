package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/apiarium/apiary/storage/model"
)

func (h *handlers) queens(c *fiber.Ctx) error {
	queens, err := h.storages.Queens.ListWithPlacement()
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"queens": queens})
}

func (h *handlers) queenOptions(c *fiber.Ctx) error {
	options, err := h.storages.Queens.Options()
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"queens": options})
}

func (h *handlers) queen(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	queen, err := h.storages.Queens.Get(id)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "Queen not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"queen": queen})
}

// queenRequest is the writable queen shape; the id is only consulted on
// update.
type queenRequest struct {
	ID              uint    `json:"id"`
	TagNumber       *string `json:"tag_number"`
	BirthYear       *int    `json:"birth_year"`
	Marked          *string `json:"marked"`
	Breed           *string `json:"breed"`
	Breeder         *string `json:"breeder"`
	MotherTag       *string `json:"mother_tag"`
	MatingMotherTag *string `json:"mating_mother_tag"`
	MatingStation   *string `json:"mating_station"`
}

func (r queenRequest) queen() model.Queen {
	return model.Queen{
		TagNumber:       r.TagNumber,
		BirthYear:       r.BirthYear,
		Marked:          r.Marked,
		Breed:           r.Breed,
		Breeder:         r.Breeder,
		MotherTag:       r.MotherTag,
		MatingMotherTag: r.MatingMotherTag,
		MatingStation:   r.MatingStation,
	}
}

func (h *handlers) queenCreate(c *fiber.Ctx) error {
	var req queenRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Invalid request body")
	}
	queen, err := h.storages.Queens.Create(req.queen())
	if err != nil {
		return serverError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "id": queen.ID})
}

func (h *handlers) queenUpdate(c *fiber.Ctx) error {
	var req queenRequest
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return validationError(c, "Valid id required")
	}
	if err := h.storages.Queens.Update(req.ID, req.queen()); err != nil {
		if isNotFound(err) {
			return notFound(c, "Queen not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *handlers) queenDelete(c *fiber.Ctx) error {
	id, ok := requireID(c)
	if !ok {
		return validationError(c, "Valid id required")
	}
	if err := h.storages.Queens.Delete(id); err != nil {
		if isNotFound(err) {
			return notFound(c, "Queen not found")
		}
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
