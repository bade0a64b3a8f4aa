package adapter

import (
	"context"
	"testing"

	cartapp "github.com/dwikikusuma/farmgate/internal/cart/app"
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerReaderKeepsUnpricedLines(t *testing.T) {
	ledger := cartapp.NewLedger(cartapp.WithLogger(logger.Discard()))
	ledger.Add(cartdomain.Item{ProductID: "p1", Name: "Avocado", Price: decimal.NewFromInt(25)}, 2)
	ledger.Add(cartdomain.Item{ProductID: "p2", Name: "Honey", Price: decimal.Zero}, 1)

	r := NewLedgerReader(ledger)
	snap := r.Current(context.Background())

	require.Len(t, snap.Lines, 2, "checkout decides what to do with unpriced lines")
	assert.False(t, snap.Lines[1].Valid())
	assert.Len(t, ledger.Snapshot().Lines, 2, "reading does not mutate the cart")

	r.Clear(context.Background())
	assert.True(t, ledger.Snapshot().Empty())
}
