package ordering

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Aggregate is the set of line items that become one order
type Aggregate struct {
	Key           string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Items         []LineItem
	Discount      decimal.Decimal
}

// CustomerKey normalizes a customer name for grouping
func CustomerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GroupByCustomer groups items by normalized customer name. Aggregates come
// back in first-seen order and keep the first row's contact details.
func GroupByCustomer(items []LineItem) []Aggregate {
	index := make(map[string]int)
	var groups []Aggregate

	for _, item := range items {
		key := CustomerKey(item.CustomerName)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Aggregate{
				Key:           key,
				CustomerName:  strings.TrimSpace(item.CustomerName),
				CustomerPhone: strings.TrimSpace(item.CustomerPhone),
				CustomerEmail: strings.TrimSpace(item.CustomerEmail),
			})
		}
		groups[i].Items = append(groups[i].Items, item)
		groups[i].Discount = groups[i].Discount.Add(item.Discount)
	}

	return groups
}
