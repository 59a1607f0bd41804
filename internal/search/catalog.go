package search

import "time"

type Jurisprudence struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Court       string    `json:"court"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	Similarity  int       `json:"similarity"`
}

type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Format      string    `json:"format"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
}

type Contact struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	OAB         string   `json:"oab"`
	Specialty   string   `json:"specialty"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Tags        []string `json:"tags"`
}

// Catalog is the reference material every tenant searches alongside its
// own processes.
type Catalog struct {
	Jurisprudence []Jurisprudence
	Documents     []Document
	Contacts      []Contact
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func DefaultCatalog() Catalog {
	return Catalog{
		Jurisprudence: []Jurisprudence{
			{
				ID:          "jur_1",
				Title:       "STJ - REsp 1.234.567 - Civil Liability in Contracts",
				Description: "Ruling sets a precedent on civil liability in legal services contracts.",
				Court:       "Superior Court of Justice",
				Date:        mustTime("2024-12-15T14:20:00Z"),
				Tags:        []string{"liability", "civil", "contract", "stj"},
				Similarity:  95,
			},
			{
				ID:          "jur_2",
				Title:       "TJSP - Appeal 5555.666 - Contract Termination",
				Description: "Contract terminated for debtor default with a compensatory penalty applied.",
				Court:       "TJSP",
				Date:        mustTime("2024-11-20T09:30:00Z"),
				Tags:        []string{"termination", "contract", "default", "tjsp"},
				Similarity:  87,
			},
		},
		Documents: []Document{
			{
				ID:          "doc_1",
				Title:       "Initial Petition - Collection Action",
				Description: "Template initial petition for collecting attorney fees with supporting case law.",
				Category:    "template",
				Format:      "docx",
				Date:        mustTime("2024-11-30T09:15:00Z"),
				Tags:        []string{"petition", "template", "collection"},
				Author:      "Dr. Carlos Oliveira",
			},
			{
				ID:          "doc_2",
				Title:       "Legal Services Agreement",
				Description: "Standard agreement for legal services with updated clauses.",
				Category:    "contract",
				Format:      "pdf",
				Date:        mustTime("2024-10-15T14:00:00Z"),
				Tags:        []string{"contract", "services", "template"},
				Author:      "Dr. Ana Paula",
			},
		},
		Contacts: []Contact{
			{
				ID:          "cont_1",
				Name:        "Dr. Roberto Lima",
				Title:       "Civil Law Specialist",
				Description: "Attorney specialized in civil law and contractual liability. OAB/SP 123.456.",
				OAB:         "123456",
				Specialty:   "civil",
				Phone:       "(11) 99999-9999",
				Email:       "roberto@lima.adv.br",
				Tags:        []string{"attorney", "civil", "specialist"},
			},
		},
	}
}
