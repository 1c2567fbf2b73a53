package catalog

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/auth"
	"flavorshop-backend/internal/media"
	"flavorshop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CategoryRequest struct {
	Name string `json:"name" form:"name"`
}

func paramID(c *fiber.Ctx, key, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s id", what)
	}
	return uint(id), nil
}

// GET /api/categories
func ListCategoriesHandler(svc CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.ListCategories(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/categories
func CreateCategoryHandler(svc CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		cat, err := svc.CreateCategory(c.UserContext(), auth.CurrentActor(c), body.Name)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(Ref{ID: cat.ID, Name: cat.Name})
	}
}

// PUT /api/categories/:id
func RenameCategoryHandler(svc CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id", "category")
		if err != nil {
			return err
		}
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		cat, err := svc.RenameCategory(c.UserContext(), auth.CurrentActor(c), id, body.Name)
		if err != nil {
			return err
		}
		return c.JSON(Ref{ID: cat.ID, Name: cat.Name})
	}
}

// DELETE /api/categories/:id
func DeleteCategoryHandler(svc CategoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id", "category")
		if err != nil {
			return err
		}
		if err := svc.DeleteCategory(c.UserContext(), auth.CurrentActor(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// formHas reports whether the form carried key at all, even empty.
func formHas(c *fiber.Ctx, key string) bool {
	if form, err := c.MultipartForm(); err == nil {
		_, ok := form.Value[key]
		return ok
	}
	return c.Request().PostArgs().Has(key)
}

// parseFlavorList accepts a JSON array or a comma separated list.
func parseFlavorList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return nil, apperr.Validation("flavors must be a JSON array of names")
		}
		return names, nil
	}
	return strings.Split(raw, ","), nil
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	// accept Brazilian decimal commas
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation("%s must be a number", field)
	}
	return d, nil
}

// readImage takes the uploaded "image" file, or downloads "image_url" when no
// file was sent.
func readImage(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if raw := strings.TrimSpace(c.FormValue("image_url")); raw != "" {
			return media.Fetch(c.UserContext(), raw)
		}
		return nil, nil
	}
	if fh.Size > media.MaxUploadBytes {
		return nil, apperr.Validation("image is larger than %d MB", media.MaxUploadBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Validation("could not read image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Validation("could not read image")
	}
	return data, nil
}

func parseProductForm(c *fiber.Ctx, update bool) (ProductInput, error) {
	in := ProductInput{
		Name:         c.FormValue("name"),
		CategoryName: c.FormValue("category"),
		Description:  c.FormValue("description"),
	}

	if raw := strings.TrimSpace(c.FormValue("category_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return in, apperr.Validation("invalid category_id")
		}
		in.CategoryID = uint(id)
	}

	var err error
	if in.OriginalPrice, err = parseMoney(c.FormValue("original_price"), "original_price"); err != nil {
		return in, err
	}
	if raw := strings.TrimSpace(c.FormValue("discount_price")); raw != "" {
		d, err := parseMoney(raw, "discount_price")
		if err != nil {
			return in, err
		}
		in.DiscountPrice = decimal.NewNullDecimal(d)
	}

	if raw := c.FormValue("status"); strings.TrimSpace(raw) != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return in, apperr.Validation("status must be ACTIVE or DISABLED")
		}
		in.Status = st
	}

	if !update || formHas(c, "flavors") {
		if in.Flavors, err = parseFlavorList(c.FormValue("flavors")); err != nil {
			return in, err
		}
	}

	if in.Image, err = readImage(c); err != nil {
		return in, err
	}
	return in, nil
}

// GET /api/products?status=ACTIVE
func ListProductsHandler(svc ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var status models.Status
		if raw := c.Query("status"); raw != "" {
			st, err := models.ParseStatus(raw)
			if err != nil {
				return apperr.Validation("status must be ACTIVE or DISABLED")
			}
			status = st
		}
		res, err := svc.ListProducts(c.UserContext(), status)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler(svc ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id", "product")
		if err != nil {
			return err
		}
		res, err := svc.GetProduct(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/products (multipart)
func CreateProductHandler(svc ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseProductForm(c, false)
		if err != nil {
			return err
		}
		res, err := svc.CreateProduct(c.UserContext(), auth.CurrentActor(c), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// PUT /api/products/:id (multipart)
func UpdateProductHandler(svc ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id", "product")
		if err != nil {
			return err
		}
		in, err := parseProductForm(c, true)
		if err != nil {
			return err
		}
		res, err := svc.UpdateProduct(c.UserContext(), auth.CurrentActor(c), id, in)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(svc ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id", "product")
		if err != nil {
			return err
		}
		if err := svc.DeleteProduct(c.UserContext(), auth.CurrentActor(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/products/:id/flavors
func ActiveFlavorsHandler(svc ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id", "product")
		if err != nil {
			return err
		}
		res, err := svc.ActiveFlavors(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
