package models

import (
	"time"

	"github.com/google/uuid"
)

type ParcelStatus string

const (
	ParcelGreen ParcelStatus = "green"
	ParcelRed   ParcelStatus = "red"
)

// Parcel is a tracked plot of land ("manzana"). Status is derived from the
// parcel's activities and recomputed on status refresh.
type Parcel struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Status    ParcelStatus `json:"status"`
	OwnerID   *uuid.UUID   `json:"owner_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "pending"
	ActivityCompleted ActivityStatus = "completed"
)

type UsageUnit string

const (
	UnitCups   UsageUnit = "cups"
	UnitUnits  UsageUnit = "units"
	UnitPounds UsageUnit = "pounds"
)

// ProductUsage is one catalog product consumed by an activity, with the
// cost computed for that line.
type ProductUsage struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	Unit      UsageUnit `json:"unit"`
	Cost      float64   `json:"cost"`
}

// Activity is a logged agricultural action on a parcel, e.g. spraying or
// fertilizing. TotalCost = product line costs + labor.
type Activity struct {
	ID           uuid.UUID      `json:"id"`
	ParcelID     uuid.UUID      `json:"parcel_id"`
	Type         string         `json:"type"`
	PerformedAt  time.Time      `json:"performed_at"`
	AlertAt      *time.Time     `json:"alert_at,omitempty"`
	Status       ActivityStatus `json:"status"`
	ProductsUsed []ProductUsage `json:"products_used"`
	LaborCost    float64        `json:"labor_cost"`
	TotalCost    float64        `json:"total_cost"`
	OwnerID      *uuid.UUID     `json:"owner_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type ProductType string

const (
	ProductPesticide  ProductType = "pesticide"
	ProductFertilizer ProductType = "fertilizer"
	ProductMaterial   ProductType = "material"
	ProductSeeds      ProductType = "seeds"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductPesticide, ProductFertilizer, ProductMaterial, ProductSeeds:
		return true
	}
	return false
}

type Presentation string

const (
	PresentationLiter  Presentation = "liter"
	PresentationBag    Presentation = "bag"
	PresentationGallon Presentation = "gallon"
	PresentationJug    Presentation = "jug"
	PresentationBucket Presentation = "bucket"
)

// Product is a per-owner catalog item. Pesticides carry how many cups one
// unit of the presentation holds; seeds carry pounds per bag.
type Product struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Type         ProductType   `json:"type"`
	Price        float64       `json:"price"`
	Presentation *Presentation `json:"presentation,omitempty"`
	CupsPerUnit  *float64      `json:"cups_per_unit,omitempty"`
	PoundsPerBag *float64      `json:"pounds_per_bag,omitempty"`
	Note         string        `json:"note,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	OwnerID      *uuid.UUID    `json:"owner_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ActivitySnapshot is the frozen copy of an activity stored on a harvest.
type ActivitySnapshot struct {
	Type         string         `json:"type"`
	PerformedAt  time.Time      `json:"performed_at"`
	ProductsUsed []ProductUsage `json:"products_used"`
	LaborCost    float64        `json:"labor_cost"`
	TotalCost    float64        `json:"total_cost"`
}

// Production is one harvested product line with its sale price.
type Production struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// ExtraExpense is a post-harvest cost not tied to any activity.
type ExtraExpense struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Harvest is the immutable snapshot taken when a parcel is harvested, plus
// the production income and expense tracking filled in afterwards.
type Harvest struct {
	ID            uuid.UUID          `json:"id"`
	ParcelID      uuid.UUID          `json:"parcel_id"`
	Activities    []ActivitySnapshot `json:"activities"`
	TotalCost     float64            `json:"total_cost"`
	HarvestedAt   time.Time          `json:"harvested_at"`
	Productions   []Production       `json:"productions"`
	ExtraExpenses []ExtraExpense     `json:"extra_expenses"`
	Paid          bool               `json:"paid"`
	OwnerID       *uuid.UUID         `json:"owner_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
