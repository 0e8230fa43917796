// internal/collectors/haveibeenpwned/models.go
package haveibeenpwned

import "phineas/internal/core/domain"

// breach es un elemento de /breachedaccount/{email}.
type breach struct {
	Name         string   `json:"Name"`
	Title        string   `json:"Title"`
	Domain       string   `json:"Domain"`
	BreachDate   string   `json:"BreachDate"`
	AddedDate    string   `json:"AddedDate"`
	ModifiedDate string   `json:"ModifiedDate"`
	PwnCount     int64    `json:"PwnCount"`
	Description  string   `json:"Description"`
	DataClasses  []string `json:"DataClasses"`
	IsVerified   bool     `json:"IsVerified"`
	IsFabricated bool     `json:"IsFabricated"`
	IsSensitive  bool     `json:"IsSensitive"`
	IsRetired    bool     `json:"IsRetired"`
	IsSpamList   bool     `json:"IsSpamList"`
}

// paste es un elemento de /pasteaccount/{email}.
type paste struct {
	Source     string `json:"Source"`
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	Date       string `json:"Date"`
	EmailCount int    `json:"EmailCount"`
}

func (b breach) record() domain.Record {
	classes := make([]any, 0, len(b.DataClasses))
	for _, c := range b.DataClasses {
		classes = append(classes, c)
	}
	return domain.Record{
		"name":          b.Name,
		"title":         b.Title,
		"domain":        b.Domain,
		"breach_date":   b.BreachDate,
		"added_date":    b.AddedDate,
		"modified_date": b.ModifiedDate,
		"pwn_count":     b.PwnCount,
		"description":   b.Description,
		"data_classes":  classes,
		"is_verified":   b.IsVerified,
		"is_fabricated": b.IsFabricated,
		"is_sensitive":  b.IsSensitive,
		"is_retired":    b.IsRetired,
		"is_spam_list":  b.IsSpamList,
	}
}

func (p paste) record() domain.Record {
	return domain.Record{
		"source":      p.Source,
		"id":          p.ID,
		"title":       p.Title,
		"date":        p.Date,
		"email_count": p.EmailCount,
	}
}
