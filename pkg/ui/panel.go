package ui

import (
	"github.com/vanderheijden86/schoolmap/pkg/controller"
	"github.com/vanderheijden86/schoolmap/pkg/model"
	"github.com/vanderheijden86/schoolmap/pkg/search"
)

// ResultKind tells a school result from a region or district result.
type ResultKind int

const (
	ResultSchool ResultKind = iota
	ResultRegion
	ResultDistrict
)

// ResultItem is one selectable row of the search results.
type ResultItem struct {
	Kind  ResultKind
	Value string
	Meta  string
}

// Event converts the row to the controller event it triggers.
func (r ResultItem) Event() controller.Event {
	switch r.Kind {
	case ResultRegion:
		return controller.SearchResultFilter{Dimension: string(model.DimRegions), Value: r.Value}
	case ResultDistrict:
		return controller.SearchResultFilter{Dimension: string(model.DimDistricts), Value: r.Value}
	default:
		return controller.SearchResultJump{Name: r.Value}
	}
}

// flattenResults lists schools, then regions, then districts.
func flattenResults(res search.Result) []ResultItem {
	items := make([]ResultItem, 0, res.Total())
	for _, e := range res.Entities {
		items = append(items, ResultItem{Kind: ResultSchool, Value: e.Name, Meta: e.Meta()})
	}
	for _, r := range res.Regions {
		items = append(items, ResultItem{Kind: ResultRegion, Value: r, Meta: "Region"})
	}
	for _, d := range res.Districts {
		items = append(items, ResultItem{Kind: ResultDistrict, Value: d, Meta: "District"})
	}
	return items
}

// Panels holds the overlay state driven by the controller. It implements
// controller.Panel; the Model renders it.
type Panels struct {
	detail     *model.Entity
	results    []ResultItem
	resultTerm string
	showResult bool
	resultIdx  int

	tooltip    *model.Entity
	tooltipPos controller.Pixel

	slideOver bool
	exposed   model.ViewMode
	changed   bool
}

// NewPanels returns panels exposing the "all" mode.
func NewPanels() *Panels {
	return &Panels{exposed: model.ViewAll}
}

func (p *Panels) ShowDetail(e model.Entity) {
	p.detail = &e
	p.changed = true
}

func (p *Panels) HideDetail() {
	p.detail = nil
	p.changed = true
}

func (p *Panels) ShowSearchResults(r search.Result) {
	p.results = flattenResults(r)
	p.resultTerm = r.Term
	p.resultIdx = 0
	p.showResult = true
}

func (p *Panels) HideSearchResults() {
	p.results = nil
	p.resultTerm = ""
	p.resultIdx = 0
	p.showResult = false
}

func (p *Panels) ShowTooltip(e model.Entity, at controller.Pixel) {
	p.tooltip = &e
	p.tooltipPos = at
}

func (p *Panels) HideTooltip() {
	p.tooltip = nil
}

func (p *Panels) CloseSlideOver() {
	p.slideOver = false
}

func (p *Panels) ExposeFilterGroups(mode model.ViewMode) {
	p.exposed = mode
}

// OpenSlideOver shows the list over the map in the narrow layout.
func (p *Panels) OpenSlideOver() {
	p.slideOver = true
}

// SlideOver reports whether the slide-over list is open.
func (p *Panels) SlideOver() bool { return p.slideOver }

// Detail returns the school in the detail panel.
func (p *Panels) Detail() (model.Entity, bool) {
	if p.detail == nil {
		return model.Entity{}, false
	}
	return *p.detail, true
}

// Results returns the result rows and whether they are shown.
func (p *Panels) Results() ([]ResultItem, bool) {
	return p.results, p.showResult
}

// Tooltip returns the hovered school and pointer position.
func (p *Panels) Tooltip() (model.Entity, controller.Pixel, bool) {
	if p.tooltip == nil {
		return model.Entity{}, controller.Pixel{}, false
	}
	return *p.tooltip, p.tooltipPos, true
}

// Exposed returns the mode whose filter group is shown.
func (p *Panels) Exposed() model.ViewMode { return p.exposed }

// takeDetailChange reports whether the detail panel changed since the last call.
func (p *Panels) takeDetailChange() bool {
	c := p.changed
	p.changed = false
	return c
}

// moveResult moves the result cursor, clamped.
func (p *Panels) moveResult(delta int) {
	if len(p.results) == 0 {
		return
	}
	p.resultIdx = min(max(p.resultIdx+delta, 0), len(p.results)-1)
}

// selectedResult returns the row under the result cursor.
func (p *Panels) selectedResult() (ResultItem, bool) {
	if !p.showResult || len(p.results) == 0 {
		return ResultItem{}, false
	}
	return p.results[p.resultIdx], true
}
