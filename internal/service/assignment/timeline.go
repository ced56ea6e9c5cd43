package assignment

import (
	"sort"
	"strings"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const productNameSeparator = " & "

// resolve picks the most recent batch at or before date from a person's
// history, falling back to the baseline when no dated batch qualifies.
func resolve(history []domain.Assignment, date domain.Date) []domain.Assignment {
	history = applyStartDates(history)
	dated := datedOnOrBefore(history, date)
	if len(dated) > 0 {
		latest := *dated[0].EffectiveDate
		for _, a := range dated[1:] {
			if a.EffectiveDate.After(latest) {
				latest = *a.EffectiveDate
			}
		}
		out := []domain.Assignment{}
		for _, a := range dated {
			if a.EffectiveDate.Equal(latest) {
				out = append(out, a)
			}
		}
		return out
	}
	out := []domain.Assignment{}
	for _, a := range history {
		if a.EffectiveDate == nil {
			out = append(out, a)
		}
	}
	return out
}

func datedOnOrBefore(history []domain.Assignment, date domain.Date) []domain.Assignment {
	var out []domain.Assignment
	for _, a := range history {
		if a.EffectiveDate != nil && !a.EffectiveDate.After(date) {
			out = append(out, a)
		}
	}
	return out
}

// applyStartDates sets StartDate on each dated assignment to the earliest
// date of the unbroken run of batches holding the same product.
func applyStartDates(history []domain.Assignment) []domain.Assignment {
	batches := make(map[domain.Date]map[int64]struct{})
	var dates []domain.Date
	for _, a := range history {
		if a.EffectiveDate == nil {
			continue
		}
		d := *a.EffectiveDate
		if _, ok := batches[d]; !ok {
			batches[d] = make(map[int64]struct{})
			dates = append(dates, d)
		}
		batches[d][a.ProductID] = struct{}{}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	position := make(map[domain.Date]int, len(dates))
	for i, d := range dates {
		position[d] = i
	}

	out := make([]domain.Assignment, len(history))
	for i, a := range history {
		out[i] = a
		if a.EffectiveDate == nil {
			out[i].StartDate = nil
			continue
		}
		idx := position[*a.EffectiveDate]
		start := dates[idx]
		for j := idx - 1; j >= 0; j-- {
			if _, ok := batches[dates[j]][a.ProductID]; !ok {
				break
			}
			start = dates[j]
		}
		out[i].StartDate = &start
	}
	return out
}

type personProduct struct {
	personID  int64
	productID int64
}

// reassignments diffs the batches recorded exactly at date against each
// affected person's assignments on the previous day.
func reassignments(exact []domain.Assignment, histories map[int64][]domain.Assignment, date domain.Date, productNames map[int64]string) []domain.Reassignment {
	exact = append([]domain.Assignment(nil), exact...)
	sort.SliceStable(exact, func(i, j int) bool { return exact[i].ID > exact[j].ID })

	var personOrder []int64
	seenPerson := make(map[int64]bool)
	for _, a := range exact {
		if !seenPerson[a.Person.ID] {
			seenPerson[a.Person.ID] = true
			personOrder = append(personOrder, a.Person.ID)
		}
	}

	var previous []domain.Assignment
	dayBefore := date.AddDays(-1)
	for _, personID := range personOrder {
		previous = append(previous, resolve(histories[personID], dayBefore)...)
	}

	inExact := make(map[personProduct]bool, len(exact))
	for _, a := range exact {
		inExact[personProduct{a.Person.ID, a.ProductID}] = true
	}
	common := make(map[personProduct]bool)
	for _, a := range previous {
		key := personProduct{a.Person.ID, a.ProductID}
		if inExact[key] {
			common[key] = true
		}
	}
	exact = withoutPairs(exact, common)
	previous = withoutPairs(previous, common)

	var people []domain.Person
	listed := make(map[int64]bool)
	for _, a := range append(append([]domain.Assignment(nil), exact...), previous...) {
		if !listed[a.Person.ID] {
			listed[a.Person.ID] = true
			people = append(people, a.Person)
		}
	}

	out := []domain.Reassignment{}
	for _, person := range people {
		to := joinProductNames(exact, person.ID, productNames)
		from := joinProductNames(previous, person.ID, productNames)
		if to == domain.UnassignedProductName && from == "" {
			continue
		}
		if to == "" && from == "" {
			continue
		}
		out = append(out, domain.Reassignment{Person: person, FromProductName: from, ToProductName: to})
	}
	return out
}

func withoutPairs(assignments []domain.Assignment, pairs map[personProduct]bool) []domain.Assignment {
	var out []domain.Assignment
	for _, a := range assignments {
		if !pairs[personProduct{a.Person.ID, a.ProductID}] {
			out = append(out, a)
		}
	}
	return out
}

func joinProductNames(assignments []domain.Assignment, personID int64, productNames map[int64]string) string {
	var names []string
	for _, a := range assignments {
		if a.Person.ID == personID {
			names = append(names, productNames[a.ProductID])
		}
	}
	return strings.Join(names, productNameSeparator)
}

// effectiveDates returns, ascending, the distinct dates of a space's
// assignments whose reassignment list is not empty.
func effectiveDates(all []domain.Assignment, productNames map[int64]string) []domain.Date {
	histories := groupByPerson(all)
	byDate := make(map[domain.Date][]domain.Assignment)
	var dates []domain.Date
	for _, a := range all {
		if a.EffectiveDate == nil {
			continue
		}
		d := *a.EffectiveDate
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], a)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := []domain.Date{}
	for _, d := range dates {
		if len(reassignments(byDate[d], histories, d, productNames)) > 0 {
			out = append(out, d)
		}
	}
	return out
}

func groupByPerson(all []domain.Assignment) map[int64][]domain.Assignment {
	out := make(map[int64][]domain.Assignment)
	for _, a := range all {
		out[a.Person.ID] = append(out[a.Person.ID], a)
	}
	return out
}
