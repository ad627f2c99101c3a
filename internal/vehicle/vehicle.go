package vehicle

import (
	"net/http"
	"strings"
	"time"

	errors "github.com/campusid/parking-portal/internal"
	vehicleDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/vehicle"
	"github.com/campusid/parking-portal/internal/user"
)

type Type string

const (
	TypeMotor Type = "motor"
	TypeCar   Type = "car"
	TypeOther Type = "other"
)

var typeAliases = map[string]Type{
	"motor":   TypeMotor,
	"car":     TypeCar,
	"mobil":   TypeCar,
	"other":   TypeOther,
	"lainnya": TypeOther,
}

// ParseType accepts the canonical names and the Indonesian form labels.
func ParseType(raw string) (Type, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", errors.NewValidationFieldError("vehicle_type", "vehicle_type must be one of: motor, car, other", errors.ErrCodeInvalidType)
	}
	return t, nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Vehicle struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	OwnerNIM    string    `json:"owner_nim"`
	Plate       string    `json:"plate"`
	VehicleType Type      `json:"vehicle_type"`
	PhotoURL    string    `json:"photo_url"`
	QRURL       string    `json:"qr_url"`
	OwnerRole   user.Role `json:"owner_role"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Token is the text encoded in a vehicle QR. It never collides with an
// identity token because no role is called VEHICLE.
func Token(plate string) string {
	return "VEHICLE:" + plate
}

// Summary backs the admin dashboard.
type Summary struct {
	Total    int64            `json:"total"`
	ByType   map[Type]int64   `json:"by_type"`
	ByStatus map[Status]int64 `json:"by_status"`
}

func FromDataModel(v *vehicleDatamodel.Vehicle) *Vehicle {
	return &Vehicle{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		OwnerName:   v.OwnerName,
		OwnerNIM:    v.OwnerNIM,
		Plate:       v.Plate,
		VehicleType: Type(v.VehicleType),
		PhotoURL:    v.PhotoURL,
		QRURL:       v.QRURL,
		OwnerRole:   user.Role(v.OwnerRole),
		Status:      Status(v.Status),
		CreatedAt:   v.CreatedAt,
	}
}

func fromDataModels(rows []*vehicleDatamodel.Vehicle) []*Vehicle {
	out := make([]*Vehicle, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}

var photoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// sniffPhoto reports the content type and file extension of an uploaded photo.
func sniffPhoto(photo []byte) (string, string) {
	contentType := http.DetectContentType(photo)
	if ext, ok := photoExtensions[contentType]; ok {
		return contentType, ext
	}
	return contentType, ".bin"
}
