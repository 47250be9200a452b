package doctor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// FuzzyCutoff is the minimum similarity ratio accepted by the fuzzy fallback.
const FuzzyCutoff = 0.5

// Matcher resolves free-text doctor and department queries against the
// roster. It re-reads the roster on every call.
type Matcher struct {
	roster Roster
}

func NewMatcher(roster Roster) *Matcher {
	return &Matcher{roster: roster}
}

// FindDoctor resolves query to a doctor by exact key, then substring, then
// similarity ratio. Keys are textnorm.NormalizeName of the doctor name.
func (m *Matcher) FindDoctor(ctx context.Context, query string) (*Doctor, error) {
	doctors, err := m.roster.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	byKey := make(map[string]Doctor, len(doctors))
	keys := make([]string, 0, len(doctors))
	for _, d := range doctors {
		k := textnorm.NormalizeName(d.Name)
		if k == "" {
			continue
		}
		if _, dup := byKey[k]; dup {
			continue
		}
		byKey[k] = d
		keys = append(keys, k)
	}

	key, ok := Resolve(keys, textnorm.NormalizeName(query))
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d := byKey[key]
	return &d, nil
}

// MatchDepartment resolves query against the distinct department names.
// The full department list is returned alongside ErrDepartmentNotFound so
// callers can offer it back.
func (m *Matcher) MatchDepartment(ctx context.Context, query string) (string, []string, error) {
	departments, err := m.roster.ListDepartments(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list departments: %w", err)
	}

	dept, ok := Resolve(departments, strings.ToLower(strings.TrimSpace(query)))
	if !ok {
		return "", departments, ErrDepartmentNotFound
	}
	return dept, departments, nil
}

// DoctorsInDepartment resolves the department and lists its doctors by name.
func (m *Matcher) DoctorsInDepartment(ctx context.Context, query string) (string, []Doctor, []string, error) {
	dept, departments, err := m.MatchDepartment(ctx, query)
	if err != nil {
		return "", nil, departments, err
	}

	doctors, err := m.roster.ListByDepartment(ctx, dept)
	if err != nil {
		return "", nil, departments, fmt.Errorf("list doctors in %q: %w", dept, err)
	}
	if len(doctors) == 0 {
		return "", nil, departments, ErrDepartmentNotFound
	}
	return dept, doctors, departments, nil
}

// Resolve picks the key that best matches query. Exact match wins. Among
// substring matches the shortest key wins, ties broken lexicographically.
// Otherwise the key with the highest similarity ratio at or above
// FuzzyCutoff wins, ties going to the earliest key.
func Resolve(keys []string, query string) (string, bool) {
	if query == "" || len(keys) == 0 {
		return "", false
	}

	for _, k := range keys {
		if k == query {
			return k, true
		}
	}

	var contains []string
	for _, k := range keys {
		if strings.Contains(k, query) {
			contains = append(contains, k)
		}
	}
	if len(contains) > 0 {
		sort.Slice(contains, func(i, j int) bool {
			if len(contains[i]) != len(contains[j]) {
				return len(contains[i]) < len(contains[j])
			}
			return contains[i] < contains[j]
		})
		return contains[0], true
	}

	best, bestScore := "", 0.0
	q := strings.Split(query, "")
	for _, k := range keys {
		score := similarity(strings.Split(k, ""), q)
		if score >= FuzzyCutoff && score > bestScore {
			best, bestScore = k, score
		}
	}
	return best, best != ""
}

func similarity(candidate, query []string) float64 {
	sm := difflib.NewMatcher(candidate, query)
	if sm.RealQuickRatio() < FuzzyCutoff || sm.QuickRatio() < FuzzyCutoff {
		return 0
	}
	return sm.Ratio()
}
