package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"flavorshop-backend/internal/apperr"
	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductInput carries product fields from the admin form. The category is
// looked up by CategoryID when set, otherwise by CategoryName.
// A nil Flavors on update leaves the flavor list untouched.
type ProductInput struct {
	Name          string
	CategoryID    uint
	CategoryName  string
	OriginalPrice decimal.Decimal
	DiscountPrice decimal.NullDecimal
	Description   string
	Status        models.Status
	Flavors       []string
	Image         []byte
}

type FlavorView struct {
	ID     uint          `json:"id"`
	Name   string        `json:"name"`
	Stock  int           `json:"stock"`
	Status models.Status `json:"status"`
}

type ProductView struct {
	ID            uint                `json:"id"`
	Name          string              `json:"name"`
	Category      Ref                 `json:"category"`
	OriginalPrice decimal.Decimal     `json:"original_price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Description   string              `json:"description"`
	Image         string              `json:"image"`
	ImageURL      string              `json:"image_url"`
	Status        models.Status       `json:"status"`
	Flavors       []FlavorView        `json:"flavors"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ProductService interface {
	ListProducts(ctx context.Context, status models.Status) ([]ProductView, error)
	GetProduct(ctx context.Context, id uint) (*ProductView, error)
	CreateProduct(ctx context.Context, actor audit.Actor, in ProductInput) (*ProductView, error)
	UpdateProduct(ctx context.Context, actor audit.Actor, id uint, in ProductInput) (*ProductView, error)
	DeleteProduct(ctx context.Context, actor audit.Actor, id uint) error
	ActiveFlavors(ctx context.Context, productID uint) ([]FlavorView, error)
}

func (s *Service) toView(p *models.Product) ProductView {
	v := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		Description:   p.Description,
		Image:         p.Image,
		Status:        p.Status,
		Flavors:       make([]FlavorView, 0, len(p.Flavors)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Image != "" && s.images != nil {
		v.ImageURL = s.images.URL(p.Image)
	}
	if p.Category != nil {
		v.Category = Ref{ID: p.Category.ID, Name: p.Category.Name}
	}
	for _, f := range p.Flavors {
		v.Flavors = append(v.Flavors, FlavorView{ID: f.ID, Name: f.Name, Stock: f.Stock, Status: f.Status})
	}
	return v
}

func productQuery(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Flavors", func(db *gorm.DB) *gorm.DB {
		return db.Order("flavors.name asc")
	})
}

func (s *Service) ListProducts(ctx context.Context, status models.Status) ([]ProductView, error) {
	q := productQuery(s.db.WithContext(ctx))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var products []models.Product
	if err := q.Order("name asc").Find(&products).Error; err != nil {
		return nil, apperr.FromDB(err, "product")
	}
	out := make([]ProductView, 0, len(products))
	for i := range products {
		out = append(out, s.toView(&products[i]))
	}
	return out, nil
}

func (s *Service) load(db *gorm.DB, id uint) (*models.Product, error) {
	var p models.Product
	if err := productQuery(db).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.FromDB(err, "product")
	}
	return &p, nil
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*ProductView, error) {
	p, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	v := s.toView(p)
	return &v, nil
}

// cleanFlavorNames trims, drops blanks and removes case-insensitive repeats,
// keeping the first spelling.
func cleanFlavorNames(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func validateProduct(in *ProductInput, update bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.CategoryName = strings.TrimSpace(in.CategoryName)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Name == "":
		return apperr.Validation("name is required")
	case len([]rune(in.Name)) > 150:
		return apperr.Validation("name must be at most 150 characters")
	case in.CategoryID == 0 && in.CategoryName == "":
		return apperr.Validation("category is required")
	case !in.OriginalPrice.IsPositive():
		return apperr.Validation("original_price must be greater than zero")
	case update && in.Description == "":
		return apperr.Validation("description is required")
	}
	if in.DiscountPrice.Valid {
		d := in.DiscountPrice.Decimal
		if !d.IsPositive() || d.GreaterThanOrEqual(in.OriginalPrice) {
			return apperr.Validation("discount_price must be greater than zero and lower than original_price")
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		return apperr.Validation("status must be ACTIVE or DISABLED")
	}
	if in.Flavors != nil {
		in.Flavors = cleanFlavorNames(in.Flavors)
	}
	return nil
}

func resolveCategory(tx *gorm.DB, id uint, name string) (*models.Category, error) {
	var c models.Category
	var err error
	if id != 0 {
		err = tx.First(&c, id).Error
	} else {
		err = tx.Where("LOWER(name) = LOWER(?)", name).First(&c).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("category not found")
		}
		return nil, apperr.FromDB(err, "category")
	}
	return &c, nil
}

// CreateProduct stores the image first, then the product and its flavors in
// one transaction. A failed transaction removes the uploaded image again.
func (s *Service) CreateProduct(ctx context.Context, actor audit.Actor, in ProductInput) (*ProductView, error) {
	if err := validateProduct(&in, false); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}

	imageRef := ""
	if len(in.Image) > 0 {
		ref, err := s.images.Save(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		imageRef = ref
	}

	var created *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat, err := resolveCategory(tx, in.CategoryID, in.CategoryName)
		if err != nil {
			return err
		}
		p := models.Product{
			Name:          in.Name,
			CategoryID:    cat.ID,
			OriginalPrice: in.OriginalPrice,
			DiscountPrice: in.DiscountPrice,
			Description:   in.Description,
			Image:         imageRef,
			Status:        in.Status,
		}
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			return apperr.FromDB(err, "product")
		}
		for _, name := range in.Flavors {
			f := models.Flavor{ProductID: p.ID, Name: name, Status: models.StatusActive}
			if err := tx.Create(&f).Error; err != nil {
				return apperr.FromDB(err, "flavor")
			}
		}
		if err := audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("product created: %s (%d flavors)", p.Name, len(in.Flavors)),
			After:       productSnapshot(&p, in.Flavors),
		}); err != nil {
			return err
		}
		created, err = s.load(tx, p.ID)
		return err
	})
	if err != nil {
		if imageRef != "" {
			s.images.Remove(context.WithoutCancel(ctx), imageRef)
		}
		return nil, err
	}
	v := s.toView(created)
	return &v, nil
}

type flavorChanges struct {
	Added       []string `json:"added,omitempty"`
	Renamed     []string `json:"renamed,omitempty"`
	Reactivated []string `json:"reactivated,omitempty"`
	Disabled    []string `json:"disabled,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
}

// reconcileFlavors makes the product's flavor list match names. Flavors no
// longer listed are disabled when sales reference them and deleted otherwise.
func reconcileFlavors(tx *gorm.DB, productID uint, current []models.Flavor, names []string) (*flavorChanges, error) {
	wanted := make(map[string]string, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = n
	}

	ch := &flavorChanges{}
	existing := make(map[string]bool, len(current))
	for _, f := range current {
		key := strings.ToLower(f.Name)
		existing[key] = true

		if name, keep := wanted[key]; keep {
			if name != f.Name {
				if err := tx.Model(&models.Flavor{}).Where("id = ?", f.ID).Update("name", name).Error; err != nil {
					return nil, apperr.FromDB(err, "flavor")
				}
				ch.Renamed = append(ch.Renamed, f.Name+" -> "+name)
			}
			if f.Status != models.StatusActive {
				if err := tx.Model(&models.Flavor{}).Where("id = ?", f.ID).Update("status", models.StatusActive).Error; err != nil {
					return nil, apperr.FromDB(err, "flavor")
				}
				ch.Reactivated = append(ch.Reactivated, f.Name)
			}
			continue
		}

		var sales int64
		if err := tx.Model(&models.Sale{}).Where("flavor_id = ?", f.ID).Count(&sales).Error; err != nil {
			return nil, apperr.FromDB(err, "sale")
		}
		if sales > 0 {
			if f.Status != models.StatusDisabled {
				if err := tx.Model(&models.Flavor{}).Where("id = ?", f.ID).Update("status", models.StatusDisabled).Error; err != nil {
					return nil, apperr.FromDB(err, "flavor")
				}
				ch.Disabled = append(ch.Disabled, f.Name)
			}
			continue
		}
		if err := tx.Delete(&models.Flavor{}, f.ID).Error; err != nil {
			return nil, apperr.FromDB(err, "flavor")
		}
		ch.Deleted = append(ch.Deleted, f.Name)
	}

	for _, n := range names {
		if existing[strings.ToLower(n)] {
			continue
		}
		f := models.Flavor{ProductID: productID, Name: n, Status: models.StatusActive}
		if err := tx.Create(&f).Error; err != nil {
			return nil, apperr.FromDB(err, "flavor")
		}
		ch.Added = append(ch.Added, n)
	}
	return ch, nil
}

func (s *Service) UpdateProduct(ctx context.Context, actor audit.Actor, id uint, in ProductInput) (*ProductView, error) {
	if err := validateProduct(&in, true); err != nil {
		return nil, err
	}

	newImage := ""
	if len(in.Image) > 0 {
		ref, err := s.images.Save(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		newImage = ref
	}

	var updated *models.Product
	oldImage := ""
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product not found")
			}
			return apperr.FromDB(err, "product")
		}
		var current []models.Flavor
		if err := tx.Where("product_id = ?", id).Order("id").Find(&current).Error; err != nil {
			return apperr.FromDB(err, "flavor")
		}
		before := productSnapshot(&p, flavorNames(current))

		cat, err := resolveCategory(tx, in.CategoryID, in.CategoryName)
		if err != nil {
			return err
		}

		p.Name = in.Name
		p.CategoryID = cat.ID
		p.OriginalPrice = in.OriginalPrice
		p.DiscountPrice = in.DiscountPrice
		p.Description = in.Description
		if in.Status != "" {
			p.Status = in.Status
		}
		if newImage != "" {
			oldImage = p.Image
			p.Image = newImage
		}
		if err := tx.Omit(clause.Associations).Save(&p).Error; err != nil {
			return apperr.FromDB(err, "product")
		}

		var changes *flavorChanges
		if in.Flavors != nil {
			if changes, err = reconcileFlavors(tx, p.ID, current, in.Flavors); err != nil {
				return err
			}
		}

		updated, err = s.load(tx, p.ID)
		if err != nil {
			return err
		}
		after := productSnapshot(updated, flavorNames(updated.Flavors))
		after.FlavorChanges = changes
		if err := audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: "product updated: " + p.Name,
			Before:      before,
			After:       after,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if newImage != "" {
			s.images.Remove(context.WithoutCancel(ctx), newImage)
		}
		return nil, err
	}
	if oldImage != "" {
		s.images.Remove(context.WithoutCancel(ctx), oldImage)
	}
	v := s.toView(updated)
	return &v, nil
}

// DeleteProduct removes a product and its flavors. Products with sales
// history cannot be deleted; they should be disabled instead.
func (s *Service) DeleteProduct(ctx context.Context, actor audit.Actor, id uint) error {
	image := ""
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product not found")
			}
			return apperr.FromDB(err, "product")
		}

		var sales int64
		err := tx.Model(&models.Sale{}).
			Where("flavor_id IN (?)", tx.Model(&models.Flavor{}).Select("id").Where("product_id = ?", id)).
			Count(&sales).Error
		if err != nil {
			return apperr.FromDB(err, "sale")
		}
		if sales > 0 {
			return apperr.Conflict("product has %d sale(s); disable it instead", sales).
				WithDetail("sales", sales)
		}

		var flavors []models.Flavor
		if err := tx.Where("product_id = ?", id).Find(&flavors).Error; err != nil {
			return apperr.FromDB(err, "flavor")
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Flavor{}).Error; err != nil {
			return apperr.FromDB(err, "flavor")
		}
		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return apperr.FromDB(err, "product")
		}
		image = p.Image
		return audit.WriteLog(tx, audit.LogOptions{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: "product deleted: " + p.Name,
			Before:      productSnapshot(&p, flavorNames(flavors)),
		})
	})
	if err != nil {
		return err
	}
	s.images.Remove(context.WithoutCancel(ctx), image)
	return nil
}

// ActiveFlavors lists the active flavors of an active product.
func (s *Service) ActiveFlavors(ctx context.Context, productID uint) ([]FlavorView, error) {
	var p models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", productID, models.StatusActive).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found or inactive")
		}
		return nil, apperr.FromDB(err, "product")
	}

	var flavors []models.Flavor
	err = s.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, models.StatusActive).
		Order("name asc").
		Find(&flavors).Error
	if err != nil {
		return nil, apperr.FromDB(err, "flavor")
	}
	out := make([]FlavorView, 0, len(flavors))
	for _, f := range flavors {
		out = append(out, FlavorView{ID: f.ID, Name: f.Name, Stock: f.Stock, Status: f.Status})
	}
	return out, nil
}

type productAudit struct {
	Name          string              `json:"name"`
	CategoryID    uint                `json:"category_id"`
	OriginalPrice decimal.Decimal     `json:"original_price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Status        models.Status       `json:"status"`
	Image         string              `json:"image"`
	Flavors       []string            `json:"flavors"`
	FlavorChanges *flavorChanges      `json:"flavor_changes,omitempty"`
}

func productSnapshot(p *models.Product, flavors []string) productAudit {
	sorted := append([]string(nil), flavors...)
	sort.Strings(sorted)
	return productAudit{
		Name:          p.Name,
		CategoryID:    p.CategoryID,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		Status:        p.Status,
		Image:         p.Image,
		Flavors:       sorted,
	}
}

func flavorNames(fs []models.Flavor) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}
