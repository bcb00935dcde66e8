package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Postgres fills primary keys through the column default; the sqlite driver
// used in tests has no gen_random_uuid, so ids are also assigned here.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error           { ensureID(&u.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error        { ensureID(&a.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error        { ensureID(&p.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error          { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error      { ensureID(&i.ID); return nil }
func (s *ChatbotSession) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }
func (m *ChatMessage) BeforeCreate(*gorm.DB) error    { ensureID(&m.ID); return nil }
