package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/money"
)

func TestEqualShares(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []string
		want         map[string]string
		wantErr      error
	}{
		{
			name:         "even split",
			total:        "1500",
			participants: []string{"C", "A", "B"},
			want:         map[string]string{"A": "500", "B": "500", "C": "500"},
		},
		{
			name:         "remainder cent goes to lowest id",
			total:        "100",
			participants: []string{"bob", "amy", "cat"},
			want:         map[string]string{"amy": "33.34", "bob": "33.33", "cat": "33.33"},
		},
		{
			name:         "two remainder cents",
			total:        "0.05",
			participants: []string{"a", "b", "c"},
			want:         map[string]string{"a": "0.02", "b": "0.02", "c": "0.01"},
		},
		{
			name:         "duplicates collapse",
			total:        "10",
			participants: []string{"a", "a", "b"},
			want:         map[string]string{"a": "5", "b": "5"},
		},
		{
			name:         "sub-cent total tail",
			total:        "10.005",
			participants: []string{"a", "b"},
			want:         map[string]string{"a": "5.005", "b": "5"},
		},
		{
			name:    "no participants",
			total:   "10",
			wantErr: ErrNoParticipants,
		},
		{
			name:         "zero total",
			total:        "0",
			participants: []string{"a"},
			wantErr:      ErrNonPositive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EqualShares(d(tc.total), tc.participants)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for who, want := range tc.want {
				assert.True(t, got[who].Equal(d(want)), "%s: got %s, want %s", who, got[who], want)
			}
			assert.True(t, money.Sum(got).Equal(d(tc.total)), "shares must add up to the total")
		})
	}
}

func TestItemizedShares(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		total        string
		subtotal     string
		participants []string
		want         map[string]string
		wantErr      error
	}{
		{
			name: "two-person split with tax",
			items: []Item{
				{Description: "Pizza", Amount: d("20"), Participants: []string{"Alice", "Bob"}},
				{Description: "Salad", Amount: d("10"), Participants: []string{"Alice"}},
			},
			// Alice: 20 subtotal → 22 total; Bob: 10 subtotal → 11 total
			total:        "33",
			subtotal:     "30",
			participants: []string{"Alice", "Bob"},
			want:         map[string]string{"Alice": "22", "Bob": "11"},
		},
		{
			name:         "no items splits equally",
			total:        "90",
			subtotal:     "75",
			participants: []string{"Alice", "Bob", "Charlie"},
			want:         map[string]string{"Alice": "30", "Bob": "30", "Charlie": "30"},
		},
		{
			name: "shared item with rounding",
			items: []Item{
				{Description: "Shared Pizza", Amount: d("10"), Participants: []string{"A", "B", "C"}},
			},
			total:        "11",
			subtotal:     "10",
			participants: []string{"A", "B", "C"},
			want:         map[string]string{"A": "3.66", "B": "3.67", "C": "3.67"},
		},
		{
			name: "participant with nothing assigned is omitted",
			items: []Item{
				{Description: "Steak", Amount: d("30"), Participants: []string{"Charlie"}},
			},
			total:        "33",
			subtotal:     "30",
			participants: []string{"Charlie", "Diana"},
			want:         map[string]string{"Charlie": "33"},
		},
		{
			name:         "zero subtotal",
			items:        []Item{{Description: "Item", Amount: d("10"), Participants: []string{"Alice"}}},
			total:        "10",
			subtotal:     "0",
			participants: []string{"Alice"},
			wantErr:      ErrZeroSubtotal,
		},
		{
			name:         "no participants",
			items:        []Item{{Description: "Item", Amount: d("10"), Participants: []string{"Alice"}}},
			total:        "10",
			subtotal:     "10",
			participants: []string{},
			wantErr:      ErrNoParticipants,
		},
		{
			name:         "assignee outside participants",
			items:        []Item{{Description: "Beer", Amount: d("10"), Participants: []string{"Mallory"}}},
			total:        "10",
			subtotal:     "10",
			participants: []string{"Alice"},
			wantErr:      ErrUnknownAssignee,
		},
		{
			name:         "items do not match subtotal",
			items:        []Item{{Description: "Beer", Amount: d("8"), Participants: []string{"Alice"}}},
			total:        "10",
			subtotal:     "10",
			participants: []string{"Alice"},
			wantErr:      ErrItemsMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ItemizedShares(tc.items, d(tc.total), d(tc.subtotal), tc.participants)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for who, want := range tc.want {
				assert.True(t, got[who].Equal(d(want)), "%s: got %s, want %s", who, got[who], want)
			}
			assert.True(t, money.Sum(got).Equal(d(tc.total)), "shares must add up to the total")
		})
	}
}

func TestDistributeRemainder_Negative(t *testing.T) {
	shares := map[string]decimal.Decimal{"a": d("3.67"), "b": d("3.67"), "c": d("3.67")}
	distributeRemainder(shares, d("11"), []string{"a", "b", "c"})
	assert.True(t, shares["a"].Equal(d("3.66")))
	assert.True(t, shares["b"].Equal(d("3.67")))
	assert.True(t, shares["c"].Equal(d("3.67")))
}
