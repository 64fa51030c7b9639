package digital

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/types"
)

// Owner identifies who may redeem a grant. Exactly one field must be
// set; guests are keyed by the email they checked out with.
type Owner struct {
	UserID     *uuid.UUID
	GuestEmail *string
}

// NewDownloadToken generates the opaque token embedded in download
// links.
func NewDownloadToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate download token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// BuildGrant assembles the delivery record for one digital order line.
// Expiry and download caps come from the product's file descriptor;
// zero values mean unlimited.
func BuildGrant(orderID, orderItemID, productID uuid.UUID, owner Owner, file types.DigitalFile, now time.Time) (*models.DigitalDelivery, error) {
	if owner.UserID == nil && owner.GuestEmail == nil {
		return nil, fmt.Errorf("grant owner required")
	}

	token, err := NewDownloadToken()
	if err != nil {
		return nil, err
	}

	grant := &models.DigitalDelivery{
		OrderID:       orderID,
		OrderItemID:   orderItemID,
		ProductID:     productID,
		UserID:        owner.UserID,
		GuestEmail:    owner.GuestEmail,
		DownloadToken: token,
		MaxDownloads:  file.DownloadLimit,
		File:          file,
	}
	if file.ExpiryDays > 0 {
		expires := now.UTC().AddDate(0, 0, file.ExpiryDays)
		grant.ExpiresAt = &expires
	}
	return grant, nil
}
