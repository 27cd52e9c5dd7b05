// Package pdf renders printable CMA report documents.
package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/openhaus/atrium/internal/adjustment"
	"github.com/openhaus/atrium/internal/cma/domain"
)

type ReportRenderer struct{}

func New() *ReportRenderer {
	return &ReportRenderer{}
}

// RenderReport lays out the report: subject summary up top, one adjustment
// block per comparable, and an adjusted-price summary row at the end.
func (r *ReportRenderer) RenderReport(ctx context.Context, report *domain.ComputedReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, report.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Comparative Market Analysis", props.Text{
			Size:  10,
			Align: align.Left,
		}),
	)

	// Subject summary
	subject := report.Subject
	m.AddRow(24,
		col.New(6).Add(
			text.New("Subject Property", props.Text{Style: fontstyle.Bold}),
			text.New(subject.Address, props.Text{Top: 5}),
			text.New(fmt.Sprintf("%s, %s %s", subject.City, subject.StateOrProvince, subject.PostalCode), props.Text{Top: 9}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("%.0f sq ft | %.0f bed | %.1f bath", subject.LivingArea, subject.Bedrooms, subject.Bathrooms), props.Text{Top: 0}),
			text.New(fmt.Sprintf("List price: %s", adjustment.FormatPrice(subject.ListPrice)), props.Text{Top: 4}),
		),
	)

	for _, result := range report.Results {
		r.addComparable(m, result)
	}

	// Summary table
	m.AddRow(10,
		text.NewCol(12, "Adjusted Prices", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Top:   2,
		}),
	)
	m.AddRow(8,
		text.NewCol(6, "Comparable", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Sale Price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Adjustment", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Adjusted", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, result := range report.Results {
		m.AddRow(7,
			text.NewCol(6, result.CompAddress, props.Text{Size: 9}),
			text.NewCol(2, adjustment.FormatPrice(result.SalePrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, adjustment.FormatAdjustment(result.TotalAdjustment), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, adjustment.FormatPrice(result.AdjustedPrice), props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func (r *ReportRenderer) addComparable(m core.Maroto, result adjustment.Result) {
	m.AddRow(10,
		text.NewCol(8, result.CompAddress, props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Top:   2,
		}),
		text.NewCol(4, adjustment.FormatPrice(result.SalePrice), props.Text{
			Size:  11,
			Align: align.Right,
			Top:   2,
		}),
	)

	if len(result.Lines) == 0 {
		m.AddRow(7,
			text.NewCol(12, "No adjustments", props.Text{Size: 9}),
		)
		return
	}

	m.AddRow(7,
		text.NewCol(4, "Feature", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Subject", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Comparable", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Adjustment", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, line := range result.Lines {
		m.AddRow(6,
			text.NewCol(4, line.Feature, props.Text{Size: 9}),
			text.NewCol(3, line.SubjectValue, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, line.CompValue, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, adjustment.FormatAdjustment(line.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(7,
		col.New(7),
		text.NewCol(3, "Total adjustment", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, adjustment.FormatAdjustment(result.TotalAdjustment), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(7),
		text.NewCol(3, "Adjusted price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, adjustment.FormatPrice(result.AdjustedPrice), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
}
