package enums

import (
	"errors"
	"math/rand"
	"strings"
)

var (
	ErrUnknownRole       = errors.New("unknown role")
	ErrUnknownPermission = errors.New("unknown permission")
)

// Case is implemented by the string enums of this package.
type Case interface {
	~string
	Name() string
}

// Item is a name/value pair as rendered in select lists.
type Item struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func Values[T Case](cases []T) []string {
	values := make([]string, 0, len(cases))
	for _, c := range cases {
		values = append(values, string(c))
	}
	return values
}

func List[T Case](cases []T) []Item {
	items := make([]Item, 0, len(cases))
	for _, c := range cases {
		items = append(items, Item{Name: c.Name(), Value: string(c)})
	}
	return items
}

// ListByName maps case names to their values.
func ListByName[T Case](cases []T) map[string]string {
	m := make(map[string]string, len(cases))
	for _, c := range cases {
		m[c.Name()] = string(c)
	}
	return m
}

// ListByValue maps values back to case names.
func ListByValue[T Case](cases []T) map[string]string {
	m := make(map[string]string, len(cases))
	for _, c := range cases {
		m[string(c)] = c.Name()
	}
	return m
}

// JoinValues concatenates all values separated by commas.
func JoinValues[T Case](cases []T) string {
	return strings.Join(Values(cases), ",")
}

func Random[T Case](cases []T) T {
	return cases[rand.Intn(len(cases))]
}
