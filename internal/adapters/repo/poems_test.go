package repo

import (
	"reflect"
	"testing"

	"tg-poem-bot/internal/domain"
)

func TestBuildPoemFilter(t *testing.T) {
	approved := true
	cases := []struct {
		name   string
		filter domain.PoemFilter
		base   int
		where  string
		args   []any
	}{
		{
			name:   "пустой фильтр",
			filter: domain.PoemFilter{},
			where:  "TRUE",
		},
		{
			name:   "одобренные без канала",
			filter: domain.PoemFilter{Approved: &approved, NotSentTo: -100},
			where:  "TRUE AND approved = $1 AND NOT (sent_to @> ARRAY[$2]::bigint[])",
			args:   []any{true, int64(-100)},
		},
		{
			name:   "категория и поэт",
			filter: domain.PoemFilter{Category: "طنز", Poet: "حافظ"},
			where:  "TRUE AND category = $1 AND poet = $2",
			args:   []any{"طنز", "حافظ"},
		},
		{
			name:   "набор категорий со сдвигом базы",
			filter: domain.PoemFilter{Categories: []string{"عاشقانه", "غمگین"}},
			base:   3,
			where:  "TRUE AND category = ANY($4)",
			args:   []any{[]string{"عاشقانه", "غمگین"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := buildPoemFilter(tc.filter, tc.base)
			if where != tc.where {
				t.Fatalf("условие: ожидали %q, получили %q", tc.where, where)
			}
			if len(tc.args) == 0 && len(args) == 0 {
				return
			}
			if !reflect.DeepEqual(args, tc.args) {
				t.Fatalf("аргументы: ожидали %v, получили %v", tc.args, args)
			}
		})
	}
}
