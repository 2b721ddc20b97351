// Package model содержит общие типы, которыми обмениваются сопоставитель подписок и регистратор аудита.
package model

// CaseID идентификатор кейса аудита.
type CaseID string

// CaseSet набор кейсов без повторов. Порядок сохраняется в порядке первого появления.
type CaseSet []CaseID

// NewCaseSet строит набор из списка идентификаторов, отбрасывая пустые и повторяющиеся.
// Для пустого входа возвращает nil без аллокаций.
func NewCaseSet(ids []CaseID) CaseSet {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) == 1 {
		if ids[0] == "" {
			return nil
		}
		return CaseSet{ids[0]}
	}

	seen := make(map[CaseID]struct{}, len(ids))
	set := make(CaseSet, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Contains проверяет, входит ли кейс в набор.
func (s CaseSet) Contains(id CaseID) bool {
	for _, c := range s {
		if c == id {
			return true
		}
	}
	return false
}

// Strings возвращает идентификаторы в виде строк.
func (s CaseSet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}
