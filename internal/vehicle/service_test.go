package vehicle_test

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"testing"

	errors "github.com/campusid/parking-portal/internal"
	vehicleDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/vehicle"
	"github.com/campusid/parking-portal/internal/user"
	"github.com/campusid/parking-portal/internal/vehicle"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVehicle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vehicle Suite")
}

type MockRepository struct {
	vehicles  []*vehicleDatamodel.Vehicle
	counts    []vehicle.CountRow
	failError error
}

func (m *MockRepository) Create(_ context.Context, v *vehicleDatamodel.Vehicle) error {
	if m.failError != nil {
		return m.failError
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	m.vehicles = append(m.vehicles, v)
	return nil
}

func (m *MockRepository) ListByOwner(_ context.Context, ownerID string) ([]*vehicleDatamodel.Vehicle, error) {
	if m.failError != nil {
		return nil, m.failError
	}
	var out []*vehicleDatamodel.Vehicle
	for _, v := range m.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockRepository) ListAll(_ context.Context) ([]*vehicleDatamodel.Vehicle, error) {
	if m.failError != nil {
		return nil, m.failError
	}
	return m.vehicles, nil
}

func (m *MockRepository) CountByTypeAndStatus(_ context.Context) ([]vehicle.CountRow, error) {
	if m.failError != nil {
		return nil, m.failError
	}
	return m.counts, nil
}

type put struct {
	path        string
	contentType string
}

type MockBlobStore struct {
	puts      []put
	failAfter int
}

func (m *MockBlobStore) Put(_ context.Context, objectPath string, _ []byte, contentType string) (string, error) {
	if m.failAfter >= 0 && len(m.puts) >= m.failAfter {
		return "", stdErrors.New("storage unavailable")
	}
	m.puts = append(m.puts, put{path: objectPath, contentType: contentType})
	return "https://cdn/" + objectPath, nil
}

type MockCodec struct {
	tokens []string
}

func (m *MockCodec) Encode(token string) ([]byte, error) {
	m.tokens = append(m.tokens, token)
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

var jpegPhoto = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'}

var _ = Describe("Vehicle Service", func() {
	var (
		ctx     context.Context
		repo    *MockRepository
		blobs   *MockBlobStore
		codec   *MockCodec
		service *vehicle.Service
	)

	dto := func() vehicle.RegisterDTO {
		return vehicle.RegisterDTO{
			OwnerID:   "u1",
			OwnerName: "Alice",
			OwnerNIM:  "123",
			OwnerRole: user.RoleStudent,
			Plate:     "B1234XY",
			Type:      "motor",
			Photo:     jpegPhoto,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = &MockRepository{}
		blobs = &MockBlobStore{failAfter: -1}
		codec = &MockCodec{}
		service = vehicle.NewService(repo, blobs, codec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Describe("Register", func() {
		It("uploads photo and qr and stores one pending record", func() {
			v, err := service.Register(ctx, dto())
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.vehicles).To(HaveLen(1))
			Expect(v.Status).To(Equal(vehicle.StatusPending))
			Expect(v.VehicleType).To(Equal(vehicle.TypeMotor))
			Expect(v.OwnerRole).To(Equal(user.RoleStudent))
			Expect(v.ID).NotTo(BeEmpty())
			Expect(v.PhotoURL).To(Equal("https://cdn/photos/b1234xy-" + v.ID + ".jpg"))
			Expect(v.QRURL).To(Equal("https://cdn/qr/qr_b1234xy-" + v.ID + ".png"))
			Expect(v.PhotoURL).NotTo(Equal(v.QRURL))

			Expect(blobs.puts[0].contentType).To(Equal("image/jpeg"))
			Expect(blobs.puts[1].contentType).To(Equal("image/png"))
			Expect(codec.tokens).To(Equal([]string{"VEHICLE:B1234XY"}))
		})

		It("keeps the blobs of plates that slugify alike apart", func() {
			first, err := service.Register(ctx, dto())
			Expect(err).NotTo(HaveOccurred())
			d := dto()
			d.Plate = "B-1234-XY"
			second, err := service.Register(ctx, d)
			Expect(err).NotTo(HaveOccurred())
			again, err := service.Register(ctx, dto())
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ID).NotTo(Equal(second.ID))
			Expect(second.PhotoURL).NotTo(Equal(first.PhotoURL))
			Expect(second.QRURL).NotTo(Equal(first.QRURL))
			Expect(again.PhotoURL).NotTo(Equal(first.PhotoURL))
			Expect(again.QRURL).NotTo(Equal(first.QRURL))

			Expect(blobs.puts).To(HaveLen(6))
			paths := map[string]bool{}
			for _, p := range blobs.puts {
				paths[p.path] = true
			}
			Expect(paths).To(HaveLen(6))
			Expect(repo.vehicles[2].QRURL).To(Equal("https://cdn/qr/qr_b1234xy-" + again.ID + ".png"))
		})

		It("accepts the Indonesian type labels", func() {
			d := dto()
			d.Type = "Mobil"
			v, err := service.Register(ctx, d)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.VehicleType).To(Equal(vehicle.TypeCar))
		})

		It("rejects a missing photo without touching the stores", func() {
			d := dto()
			d.Photo = nil
			_, err := service.Register(ctx, d)
			Expect(errors.HasCode(err, errors.ErrCodeValidationFailed)).To(BeTrue())
			Expect(repo.vehicles).To(BeEmpty())
			Expect(blobs.puts).To(BeEmpty())
		})

		It("rejects unknown vehicle types", func() {
			d := dto()
			d.Type = "tank"
			_, err := service.Register(ctx, d)
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			details := appErr.Details.(errors.ValidationErrors)
			Expect(details.Errors[0].Code).To(Equal(string(errors.ErrCodeInvalidType)))
		})

		It("aborts without a record when the photo upload fails", func() {
			blobs.failAfter = 0
			_, err := service.Register(ctx, dto())
			Expect(errors.HasCode(err, errors.ErrCodeUploadFailed)).To(BeTrue())
			Expect(repo.vehicles).To(BeEmpty())
		})

		It("keeps the uploaded photo when the qr upload fails", func() {
			blobs.failAfter = 1
			_, err := service.Register(ctx, dto())
			Expect(errors.HasCode(err, errors.ErrCodeUploadFailed)).To(BeTrue())
			Expect(repo.vehicles).To(BeEmpty())
			Expect(blobs.puts).To(HaveLen(1))
		})

		It("reports missing stores as unavailable", func() {
			service = vehicle.NewService(nil, blobs, codec, slog.Default())
			_, err := service.Register(ctx, dto())
			Expect(err).To(Equal(errors.ErrStoreUnavailable))

			service = vehicle.NewService(repo, nil, codec, slog.Default())
			_, err = service.Register(ctx, dto())
			Expect(err).To(Equal(errors.ErrStoreUnavailable))
		})
	})

	Describe("listing", func() {
		It("lists only the owner's vehicles", func() {
			_, err := service.Register(ctx, dto())
			Expect(err).NotTo(HaveOccurred())
			other := dto()
			other.OwnerID = "u2"
			other.Plate = "D9"
			_, err = service.Register(ctx, other)
			Expect(err).NotTo(HaveOccurred())

			mine, err := service.ListForOwner(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))
			Expect(mine[0].Plate).To(Equal("B1234XY"))

			all, err := service.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("reports store failures as unavailable", func() {
			repo.failError = stdErrors.New("down")
			_, err := service.ListAll(ctx)
			Expect(errors.HasCode(err, errors.ErrCodeStoreUnavailable)).To(BeTrue())
		})
	})

	Describe("Summary", func() {
		It("totals the grouped counts", func() {
			repo.counts = []vehicle.CountRow{
				{VehicleType: "motor", Status: "pending", Total: 3},
				{VehicleType: "car", Status: "pending", Total: 2},
				{VehicleType: "car", Status: "approved", Total: 1},
			}
			summary, err := service.Summary(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Total).To(Equal(int64(6)))
			Expect(summary.ByType[vehicle.TypeCar]).To(Equal(int64(3)))
			Expect(summary.ByType[vehicle.TypeOther]).To(BeZero())
			Expect(summary.ByStatus[vehicle.StatusPending]).To(Equal(int64(5)))
		})
	})
})
