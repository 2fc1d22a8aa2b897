package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestTypesAreClosed(t *testing.T) {
	check.Equal(t, 7, len(allTypes))
	for _, typ := range allTypes {
		check.True(t, typ.Valid())
	}
	check.False(t, Type("PICK_MADE").Valid())
}

func TestEventCarriesSnapshotCopy(t *testing.T) {
	s := models.NewSession()
	ev := AuctionInitialized(s, time.Now())

	s.State = models.SessionStateReady
	check.Equal(t, models.SessionStateNone, ev.Session.State)
	check.Equal(t, TypeAuctionInitialized, ev.Type)
	check.NotEqual(t, uuid.Nil, ev.ID)
}

func TestBidEventJSON(t *testing.T) {
	s := models.NewSession()
	bid := models.Bid{ID: uuid.New(), ItemID: uuid.New(), TeamID: uuid.New(), Amount: decimal.NewFromInt(150)}
	ev := BidPlaced(s, bid, time.Now())

	raw, err := json.Marshal(ev)
	assert.NoError(t, err)

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	check.Equal(t, "BID", decoded["type"])
	check.NotNil(t, decoded["session"])
	check.NotNil(t, decoded["bid"])
	_, hasRound := decoded["round_ended"]
	check.False(t, hasRound)
}
