package ordering

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByCustomerMergesCaseAndWhitespace(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	rows := []LineItem{
		{CustomerName: "Jane", CustomerPhone: "0811", ProductID: p1, Quantity: 1, Discount: decimal.NewFromInt(2)},
		{CustomerName: "jane ", CustomerPhone: "0999", CustomerEmail: "jane@example.com", ProductID: p2, Quantity: 2, Discount: decimal.NewFromInt(3)},
		{CustomerName: "Bob", ProductID: p3, Quantity: 3},
	}

	groups := GroupByCustomer(rows)

	require.Len(t, groups, 2)

	jane := groups[0]
	assert.Equal(t, "jane", jane.Key)
	assert.Equal(t, "Jane", jane.CustomerName)
	assert.Equal(t, "0811", jane.CustomerPhone, "first-seen contact details win")
	assert.Equal(t, "", jane.CustomerEmail)
	require.Len(t, jane.Items, 2)
	assert.Equal(t, p1, jane.Items[0].ProductID)
	assert.Equal(t, p2, jane.Items[1].ProductID)
	assert.True(t, jane.Discount.Equal(decimal.NewFromInt(5)))

	bob := groups[1]
	assert.Equal(t, "Bob", bob.CustomerName)
	require.Len(t, bob.Items, 1)
	assert.Equal(t, p3, bob.Items[0].ProductID)
}

func TestGroupByCustomerEmpty(t *testing.T) {
	assert.Empty(t, GroupByCustomer(nil))
}

func TestProperty_GroupingPreservesItems(t *testing.T) {
	properties := gopter.NewProperties(nil)

	names := []string{"Jane", "jane", " JANE ", "Bob", "bob", "Ana", "Ana  "}

	properties.Property("grouping neither drops nor duplicates items and keys are unique", prop.ForAll(
		func(picks []int) bool {
			rows := make([]LineItem, len(picks))
			for i, pick := range picks {
				rows[i] = LineItem{
					CustomerName: names[pick%len(names)],
					ProductID:    uuid.New(),
					Quantity:     i + 1,
				}
			}

			groups := GroupByCustomer(rows)

			seenKeys := map[string]bool{}
			seenProducts := map[uuid.UUID]int{}
			count := 0
			for _, g := range groups {
				if seenKeys[g.Key] {
					return false
				}
				seenKeys[g.Key] = true
				for _, item := range g.Items {
					if CustomerKey(item.CustomerName) != g.Key {
						return false
					}
					seenProducts[item.ProductID]++
					count++
				}
			}
			if count != len(rows) {
				return false
			}
			for _, row := range rows {
				if seenProducts[row.ProductID] != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.Property("groups appear in first-seen order", prop.ForAll(
		func(picks []int) bool {
			rows := make([]LineItem, len(picks))
			var firstSeen []string
			seen := map[string]bool{}
			for i, pick := range picks {
				name := fmt.Sprintf("Customer %d", pick%5)
				rows[i] = LineItem{CustomerName: name, ProductID: uuid.New(), Quantity: 1}
				if key := CustomerKey(name); !seen[key] {
					seen[key] = true
					firstSeen = append(firstSeen, key)
				}
			}

			groups := GroupByCustomer(rows)
			if len(groups) != len(firstSeen) {
				return false
			}
			for i, g := range groups {
				if g.Key != firstSeen[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
