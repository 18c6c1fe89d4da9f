package mailerinfra

import "github.com/Abraxas-365/caremail/pkg/mailer"

type testRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type templateRow struct {
	Name    string `db:"name"`
	Subject string `db:"subject"`
	Body    string `db:"body"`
	IsRTL   bool   `db:"is_rtl"`
}

type pricingOptionRow struct {
	Installment     int     `db:"installment"`
	Price           float64 `db:"price"`
	ICreditText     string  `db:"icredit_text"`
	ICreditLink     string  `db:"icredit_link"`
	IFormsText      string  `db:"iforms_text"`
	IFormsLink      string  `db:"iforms_link"`
	IsGlobalDefault bool    `db:"is_global_default"`
	IsPriceDefault  bool    `db:"is_price_default"`
}

func toDomainTest(row testRow, templates []templateRow, options []pricingOptionRow) *mailer.Test {
	test := &mailer.Test{
		ID:   mailer.NewTestID(row.ID),
		Name: row.Name,
	}
	for _, t := range templates {
		test.Templates = append(test.Templates, mailer.Template{
			Name:    t.Name,
			Subject: t.Subject,
			Body:    t.Body,
			IsRTL:   t.IsRTL,
		})
	}
	for _, o := range options {
		test.PricingOptions = append(test.PricingOptions, mailer.PricingOption{
			Installment:     o.Installment,
			Price:           o.Price,
			ICreditText:     o.ICreditText,
			ICreditLink:     o.ICreditLink,
			IFormsText:      o.IFormsText,
			IFormsLink:      o.IFormsLink,
			IsGlobalDefault: o.IsGlobalDefault,
			IsPriceDefault:  o.IsPriceDefault,
		})
	}
	return test
}
