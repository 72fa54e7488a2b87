package handlers

import (
	"time"

	"github.com/stillwater-massage/practice/services/practice-service/internal/availability"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/reports"
)

type appointmentDTO struct {
	ID              string   `json:"id"`
	CustomerID      string   `json:"customer_id,omitempty"`
	CustomerName    string   `json:"customer_name"`
	CustomerEmail   string   `json:"customer_email,omitempty"`
	CustomerPhone   string   `json:"customer_phone,omitempty"`
	ServiceID       string   `json:"service_id"`
	ServiceName     string   `json:"service_name"`
	ServicePrice    float64  `json:"service_price"`
	AddonIDs        []string `json:"addon_ids"`
	AddonsTotal     float64  `json:"addons_total"`
	Total           float64  `json:"total"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Status          string   `json:"status"`
	Notes           string   `json:"notes,omitempty"`
	CreatedBy       string   `json:"created_by"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func toAppointmentDTO(a model.Appointment) appointmentDTO {
	addons := a.AddonIDs
	if addons == nil {
		addons = []string{}
	}
	return appointmentDTO{
		ID:              a.ID,
		CustomerID:      a.CustomerID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		ServiceID:       a.ServiceID,
		ServiceName:     a.ServiceName,
		ServicePrice:    a.ServicePrice,
		AddonIDs:        addons,
		AddonsTotal:     a.AddonsTotal,
		Total:           a.Total(),
		Date:            a.Date(),
		Time:            a.Time(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedBy:       string(a.CreatedBy),
		CreatedAt:       timestamp(a.CreatedAt),
		UpdatedAt:       timestamp(a.UpdatedAt),
	}
}

func toAppointmentDTOs(list []model.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentDTO(a))
	}
	return out
}

type offeringDTO struct {
	ID                 string  `json:"id"`
	Kind               string  `json:"kind"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	DurationMinutes    int     `json:"duration_minutes"`
	BasePrice          float64 `json:"base_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	CurrentPrice       float64 `json:"current_price"`
	IsActive           bool    `json:"is_active"`
	SortOrder          int     `json:"sort_order"`
	CreatedAt          string  `json:"created_at,omitempty"`
	UpdatedAt          string  `json:"updated_at,omitempty"`
}

func toOfferingDTO(o model.Offering) offeringDTO {
	return offeringDTO{
		ID:                 o.ID,
		Kind:               string(o.Kind),
		Name:               o.Name,
		Description:        o.Description,
		DurationMinutes:    o.DurationMinutes,
		BasePrice:          o.BasePrice,
		DiscountPercentage: o.DiscountPercentage,
		CurrentPrice:       o.CurrentPrice,
		IsActive:           o.IsActive,
		SortOrder:          o.SortOrder,
		CreatedAt:          timestamp(o.CreatedAt),
		UpdatedAt:          timestamp(o.UpdatedAt),
	}
}

func toOfferingDTOs(list []model.Offering) []offeringDTO {
	out := make([]offeringDTO, 0, len(list))
	for _, o := range list {
		out = append(out, toOfferingDTO(o))
	}
	return out
}

type customerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toCustomerDTO(c model.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		CreatedAt: timestamp(c.CreatedAt),
		UpdatedAt: timestamp(c.UpdatedAt),
	}
}

type blockedDateDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Reason    string `json:"reason,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toBlockedDateDTO(b model.BlockedDate) blockedDateDTO {
	return blockedDateDTO{
		ID:        b.ID,
		Date:      model.FormatDate(b.Date),
		Reason:    b.Reason,
		CreatedBy: b.CreatedBy,
		CreatedAt: timestamp(b.CreatedAt),
	}
}

type businessHoursDTO struct {
	DayOfWeek int    `json:"day_of_week"`
	Day       string `json:"day"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

func toBusinessHoursDTO(bh model.BusinessHours) businessHoursDTO {
	return businessHoursDTO{
		DayOfWeek: int(bh.DayOfWeek),
		Day:       bh.DayOfWeek.String(),
		IsOpen:    bh.IsOpen,
		OpenTime:  model.FormatClock(bh.OpenMinute),
		CloseTime: model.FormatClock(bh.CloseMinute),
	}
}

type slotDTO struct {
	Time    string `json:"time"`
	EndTime string `json:"end_time"`
}

func toSlotDTOs(slots []availability.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{
			Time:    model.FormatClock(model.MinuteOfDay(s.Start)),
			EndTime: model.FormatClock(model.MinuteOfDay(s.End())),
		})
	}
	return out
}

type summaryDTO struct {
	From             string         `json:"from"`
	To               string         `json:"to"`
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"by_status"`
	CompletionRate   float64        `json:"completion_rate"`
	NoShowRate       float64        `json:"no_show_rate"`
	CancellationRate float64        `json:"cancellation_rate"`
	Revenue          float64        `json:"revenue"`
	BookedMinutes    int            `json:"booked_minutes"`
	OpenMinutes      int            `json:"open_minutes"`
	Utilization      float64        `json:"utilization"`
}

func toSummaryDTO(s reports.Summary) summaryDTO {
	byStatus := make(map[string]int, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		byStatus[string(st)] = s.ByStatus[st]
	}
	return summaryDTO{
		From:             model.FormatDate(s.From),
		To:               model.FormatDate(s.To),
		Total:            s.Total,
		ByStatus:         byStatus,
		CompletionRate:   s.CompletionRate,
		NoShowRate:       s.NoShowRate,
		CancellationRate: s.CancellationRate,
		Revenue:          s.Revenue,
		BookedMinutes:    s.BookedMinutes,
		OpenMinutes:      s.OpenMinutes,
		Utilization:      s.Utilization,
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
