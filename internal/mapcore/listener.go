package mapcore

import "propertymap/server/internal/models"

// Listener receives the events a map emits to its caller.
type Listener interface {
	OnPropertySelect(property models.Property)

	// OnPropertyHover is called with nil when the hovered property goes away.
	OnPropertyHover(property *models.Property)

	OnSearchAreaChange(filtered []models.Property)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	PropertySelect   func(models.Property)
	PropertyHover    func(*models.Property)
	SearchAreaChange func([]models.Property)
}

func (f ListenerFuncs) OnPropertySelect(p models.Property) {
	if f.PropertySelect != nil {
		f.PropertySelect(p)
	}
}

func (f ListenerFuncs) OnPropertyHover(p *models.Property) {
	if f.PropertyHover != nil {
		f.PropertyHover(p)
	}
}

func (f ListenerFuncs) OnSearchAreaChange(filtered []models.Property) {
	if f.SearchAreaChange != nil {
		f.SearchAreaChange(filtered)
	}
}
