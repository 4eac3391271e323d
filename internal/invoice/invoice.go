// Package invoice builds order invoice numbers of the form
// INV-<UTC yyyymmddHHMMSS>-<user id>-<8 hex chars>.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-api/internal/domain"
)

const timeLayout = "20060102150405"

type Generator struct {
	now    func() time.Time
	random func() uuid.UUID
}

func New() *Generator {
	return &Generator{now: time.Now, random: uuid.New}
}

// Next returns a new invoice number for userID. Uniqueness is enforced by
// the orders.invoice index.
func (g *Generator) Next(userID domain.ID) string {
	suffix := strings.ReplaceAll(g.random().String(), "-", "")[:8]
	return fmt.Sprintf("INV-%s-%d-%s", g.now().UTC().Format(timeLayout), int64(userID), suffix)
}
