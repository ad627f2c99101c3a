package identity

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/blob"
	"github.com/campusid/parking-portal/internal/qr"
	"github.com/campusid/parking-portal/internal/user"
)

// Directory is the part of the user service the issuer needs.
type Directory interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	UpdateIdentityQRRef(ctx context.Context, id, ref string) error
}

// Token is the text encoded in a user's identity QR, e.g. "STUDENT:<id>".
func Token(role user.Role, userID string) string {
	return strings.ToUpper(string(role)) + ":" + userID
}

type Issuer struct {
	users  Directory
	blobs  blob.Store
	codec  qr.Codec
	logger *slog.Logger
}

func NewIssuer(users Directory, blobs blob.Store, codec qr.Codec, logger *slog.Logger) *Issuer {
	return &Issuer{
		users:  users,
		blobs:  blobs,
		codec:  codec,
		logger: logger,
	}
}

// IssueIfAbsent returns the user's identity QR reference, generating and
// uploading the image first if the user has none. The reference is written
// last, so any failure leaves it empty and the next call retries.
func (i *Issuer) IssueIfAbsent(ctx context.Context, userID string, role user.Role, nim string) (string, error) {
	u, err := i.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.HasIdentityQR() {
		return u.IdentityQRRef, nil
	}
	if i.blobs == nil {
		return "", errors.ErrStoreUnavailable
	}

	png, err := i.codec.Encode(Token(role, userID))
	if err != nil {
		return "", errors.NewInternalError("failed to render identity qr", err)
	}

	ref, err := i.blobs.Put(ctx, blob.ObjectPath("identity", "", nim, userID, ".png"), png, "image/png")
	if err != nil {
		return "", errors.NewUploadFailedError("failed to upload identity qr", err)
	}

	if err := i.users.UpdateIdentityQRRef(ctx, userID, ref); err != nil {
		return "", err
	}

	i.logger.Info("identity qr issued", "user_id", userID, "role", role)
	return ref, nil
}
