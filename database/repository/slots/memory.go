package slotRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"slotpass/models"

	"github.com/google/uuid"
)

// MemorySlotRepo is an in-memory SlotRepository used by service tests.
type MemorySlotRepo struct {
	mu        sync.Mutex
	templates map[string]models.SlotTemplate
	byPair    map[string]string
	slots     map[string]models.CapacitySlot
}

// NewMemorySlotRepo constructs an empty in-memory store.
func NewMemorySlotRepo() *MemorySlotRepo {
	return &MemorySlotRepo{
		templates: make(map[string]models.SlotTemplate),
		byPair:    make(map[string]string),
		slots:     make(map[string]models.CapacitySlot),
	}
}

func pairKey(facilityID, slotType string) string { return facilityID + "|" + slotType }

func capKey(facilityID, date, slotType string) string {
	return facilityID + "|" + date + "|" + slotType
}

// Slot returns the capacity row for a date, nil when never materialized.
func (r *MemorySlotRepo) Slot(facilityID, date, slotType string) *models.CapacitySlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[capKey(facilityID, date, slotType)]
	if !ok {
		return nil
	}
	return &s
}

// SlotCount reports how many capacity rows exist.
func (r *MemorySlotRepo) SlotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *MemorySlotRepo) CreateTemplate(ctx context.Context, tmpl *models.SlotTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(tmpl.FacilityID, tmpl.SlotType)
	if _, exists := r.byPair[key]; exists {
		return ErrTemplateExists
	}
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	r.templates[tmpl.ID] = *tmpl
	r.byPair[key] = tmpl.ID
	return nil
}

func (r *MemorySlotRepo) GetTemplateByID(ctx context.Context, templateID string) (*models.SlotTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *MemorySlotRepo) GetTemplatesByFacility(ctx context.Context, facilityID string) ([]models.SlotTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SlotTemplate
	for _, t := range r.templates {
		if t.FacilityID == facilityID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemorySlotRepo) ListExpiredTemplates(ctx context.Context, before string) ([]models.SlotTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SlotTemplate
	for _, t := range r.templates {
		if t.ValidTill < before {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemorySlotRepo) UpdateTemplateValidTill(ctx context.Context, templateID, validTill string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok {
		return nil
	}
	t.ValidTill = validTill
	t.UpdatedAt = time.Now()
	r.templates[templateID] = t
	return nil
}

func (r *MemorySlotRepo) UpdateTemplateCapacity(ctx context.Context, templateID string, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok {
		return nil
	}
	t.Capacity = capacity
	t.UpdatedAt = time.Now()
	r.templates[templateID] = t
	return nil
}

func (r *MemorySlotRepo) CapacitySlotExists(ctx context.Context, facilityID, date, slotType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[capKey(facilityID, date, slotType)]
	return ok, nil
}

func (r *MemorySlotRepo) InsertCapacitySlot(ctx context.Context, slot *models.CapacitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := capKey(slot.FacilityID, slot.Date, slot.SlotType)
	if _, exists := r.slots[key]; exists {
		return nil
	}
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	r.slots[key] = *slot
	return nil
}

func (r *MemorySlotRepo) MaxBooked(ctx context.Context, facilityID, slotType string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, s := range r.slots {
		if s.FacilityID == facilityID && s.SlotType == slotType && s.Booked > max {
			max = s.Booked
		}
	}
	return max, nil
}
