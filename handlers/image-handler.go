package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/krishkalaria12/snap-gallery/authz"
	"github.com/krishkalaria12/snap-gallery/imaging"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
)

const uploadField = "myFile"

func galleryPath(imageID string) string {
	return "/gallery/" + imageID
}

func hiddenPath(imageID string) string {
	return "/hidden/" + imageID
}

// PublicGallery lists public images for everyone.
func (h *Handler) PublicGallery(c *fiber.Ctx) error {
	images, err := h.store.ListImages(c.UserContext(), h.policy.PublicScope())
	if err != nil {
		return storeFailure(c, err, "Images")
	}
	return success(c, "Public gallery", fiber.Map{"images": images})
}

// Gallery lists images for a logged-in user, scoped by the policy.
func (h *Handler) Gallery(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)
	if d := h.policy.CanListPrivateGallery(id); !d.Allowed {
		return deny(c, d)
	}

	images, err := h.store.ListImages(c.UserContext(), h.policy.GalleryScope(id))
	if err != nil {
		return storeFailure(c, err, "Images")
	}
	return success(c, "Gallery", fiber.Map{"images": images})
}

func (h *Handler) NewImageForm(c *fiber.Ctx) error {
	if d := h.policy.CanUpload(middleware.CurrentIdentity(c)); !d.Allowed {
		return deny(c, d)
	}
	return success(c, "Upload an image", fiber.Map{
		"action":  "/gallery",
		"method":  fiber.MethodPost,
		"enctype": fiber.MIMEMultipartForm,
		"fields":  []string{uploadField, "desc", "privacy"},
		"privacy": []models.Visibility{models.VisibilityPublic, models.VisibilityPrivate},
	})
}

func (h *Handler) CreateImage(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)
	if d := h.policy.CanUpload(id); !d.Allowed {
		return deny(c, d)
	}

	payload, mimeType, err := readUpload(c)
	if err != nil {
		log.Errorw("read upload", "user", id.UserID, "error", err)
		return failure(c, fiber.StatusInternalServerError, "Error opening the file")
	}

	image, err := h.store.Upload(c.UserContext(), store.NewImage{
		Payload:     payload,
		MimeType:    mimeType,
		Description: c.FormValue("desc"),
		Visibility:  models.Visibility(c.FormValue("privacy")),
		OwnerID:     id.UserID,
	})
	if err != nil {
		if msg, ok := uploadMessage(err); ok {
			return c.Status(fiber.StatusBadRequest).SendString(msg)
		}
		return storeFailure(c, err, "Image")
	}

	log.Infow("image uploaded", "id", image.ID, "owner", id.UserID, "mime", image.MimeType, "bytes", len(payload))
	return c.Redirect("/gallery")
}

// readUpload returns the uploaded bytes and their declared content type.
// A missing file field yields no payload; the store rejects it as empty.
func readUpload(c *fiber.Ctx) ([]byte, string, error) {
	file, err := c.FormFile(uploadField)
	if err != nil {
		return nil, "", nil
	}

	blob, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, file.Header.Get(fiber.HeaderContentType), nil
}

func uploadMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, store.ErrEmptyUpload):
		return "Please choose an image to upload", true
	case errors.Is(err, store.ErrUnsupportedType):
		return "Only jpeg, jpg and png images are allowed", true
	case errors.Is(err, store.ErrInvalidVisibility):
		return "Privacy must be public or private", true
	}
	return "", false
}

// ShowImage renders an image with its comments and owner.
func (h *Handler) ShowImage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	image, err := h.store.GetImage(ctx, c.Params("id"))
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	if h.policy.GateDirectReads {
		if d := h.policy.CanViewImage(middleware.CurrentIdentity(c), image); !d.Allowed {
			return deny(c, d)
		}
	}

	comments, err := h.store.ListComments(ctx, image.ID)
	if err != nil {
		return storeFailure(c, err, "Comments")
	}

	owner := ""
	if user, err := h.store.GetUserByID(ctx, image.OwnerID); err == nil {
		owner = user.Username
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warnw("load image owner", "image", image.ID, "error", err)
	}

	return success(c, "Image found", fiber.Map{
		"image":    image,
		"comments": comments,
		"owner":    owner,
		"src":      hiddenPath(image.ID),
	})
}

func (h *Handler) EditImageForm(c *fiber.Ctx) error {
	image, err := h.store.GetImage(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	if d := h.policy.CanMutateImage(middleware.CurrentIdentity(c), image, authz.ActionUpdate); !d.Allowed {
		return deny(c, d)
	}

	return success(c, "Edit image", fiber.Map{
		"image":  image,
		"action": galleryPath(image.ID),
		"method": fiber.MethodPut,
		"fields": []string{"desc", "privacy"},
	})
}

func (h *Handler) UpdateImage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	image, err := h.store.GetImage(ctx, c.Params("id"))
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	if d := h.policy.CanMutateImage(middleware.CurrentIdentity(c), image, authz.ActionUpdate); !d.Allowed {
		return deny(c, d)
	}

	_, err = h.store.UpdateImage(ctx, image.ID, store.ImageUpdate{
		Description: c.FormValue("desc"),
		Visibility:  models.Visibility(c.FormValue("privacy")),
	})
	if err != nil {
		if msg, ok := uploadMessage(err); ok {
			return c.Status(fiber.StatusBadRequest).SendString(msg)
		}
		return storeFailure(c, err, "Image")
	}
	return c.Redirect(galleryPath(image.ID))
}

func (h *Handler) DeleteImage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := middleware.CurrentIdentity(c)

	image, err := h.store.GetImage(ctx, c.Params("id"))
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	if d := h.policy.CanMutateImage(id, image, authz.ActionDelete); !d.Allowed {
		return deny(c, d)
	}

	if err := h.store.DeleteImage(ctx, image.ID); err != nil {
		return storeFailure(c, err, "Image")
	}

	log.Infow("image deleted", "id", image.ID, "by", id.UserID)
	return c.Redirect("/gallery")
}

// StreamImage writes the payload with its stored mime type. Filter query
// parameters such as ?resize=200x0&grayscale return a rendered copy instead.
// Unless direct reads are gated it is reachable by anyone who knows the id.
func (h *Handler) StreamImage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	imageID := c.Params("imgId")

	var data []byte
	var mimeType string
	if h.policy.GateDirectReads {
		// The gate needs the full record, which already carries the payload.
		image, err := h.store.GetImage(ctx, imageID)
		if err != nil {
			return storeFailure(c, err, "Image")
		}
		if d := h.policy.CanViewImage(middleware.CurrentIdentity(c), image); !d.Allowed {
			return deny(c, d)
		}
		data, mimeType = image.Payload, image.MimeType
	} else {
		var err error
		data, mimeType, err = h.store.Payload(ctx, imageID)
		if err != nil {
			return storeFailure(c, err, "Image")
		}
	}

	if params := c.Queries(); imaging.Requested(params) {
		filters, err := imaging.ParseFilters(params)
		if err != nil {
			return failure(c, fiber.StatusBadRequest, err.Error())
		}
		data, mimeType, err = imaging.Render(data, filters)
		if err != nil {
			log.Warnw("render image", "id", imageID, "error", err)
			return failure(c, fiber.StatusUnprocessableEntity, "Failed to process image")
		}
	}

	c.Set(fiber.HeaderContentType, mimeType)
	return c.Send(data)
}
