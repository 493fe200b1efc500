package rpc

import (
	"time"

	"appointment-booking-api/internal/model"
)

// booking.v1 wire messages. Field numbers are part of the protocol; never
// renumber.

type Credentials struct {
	Username string // 1
	Password string // 2
}

func (m *Credentials) marshal() []byte {
	b := appendString(nil, 1, m.Username)
	return appendString(b, 2, m.Password)
}

func (m *Credentials) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Username = string(f.bytes)
		case 2:
			m.Password = string(f.bytes)
		}
		return nil
	})
}

// Reply carries a human readable outcome and, depending on the call, a
// token or an id.
type Reply struct {
	Message string // 1
	Token   string // 2
	ID      string // 3
}

func (m *Reply) marshal() []byte {
	b := appendString(nil, 1, m.Message)
	b = appendString(b, 2, m.Token)
	return appendString(b, 3, m.ID)
}

func (m *Reply) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Message = string(f.bytes)
		case 2:
			m.Token = string(f.bytes)
		case 3:
			m.ID = string(f.bytes)
		}
		return nil
	})
}

type Booking struct {
	Name    string // 1
	Email   string // 2
	Phone   string // 3
	Service string // 4
	Date    string // 5
	Time    string // 6
}

func (m *Booking) marshal() []byte {
	b := appendString(nil, 1, m.Name)
	b = appendString(b, 2, m.Email)
	b = appendString(b, 3, m.Phone)
	b = appendString(b, 4, m.Service)
	b = appendString(b, 5, m.Date)
	return appendString(b, 6, m.Time)
}

func (m *Booking) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Name = string(f.bytes)
		case 2:
			m.Email = string(f.bytes)
		case 3:
			m.Phone = string(f.bytes)
		case 4:
			m.Service = string(f.bytes)
		case 5:
			m.Date = string(f.bytes)
		case 6:
			m.Time = string(f.bytes)
		}
		return nil
	})
}

// AppointmentRef addresses one appointment; Status is only read by
// UpdateAppointmentStatus.
type AppointmentRef struct {
	ID     string // 1
	Status string // 2
}

func (m *AppointmentRef) marshal() []byte {
	b := appendString(nil, 1, m.ID)
	return appendString(b, 2, m.Status)
}

func (m *AppointmentRef) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = string(f.bytes)
		case 2:
			m.Status = string(f.bytes)
		}
		return nil
	})
}

type Empty struct{}

func (*Empty) marshal() []byte { return nil }

func (*Empty) unmarshal(b []byte) error {
	return walk(b, func(field) error { return nil })
}

// Appointment mirrors model.Appointment. CreatedAt travels as unix millis.
type Appointment struct {
	model.Appointment
}

func (m *Appointment) marshal() []byte {
	a := &m.Appointment
	b := appendString(nil, 1, a.ID)
	b = appendString(b, 2, a.Name)
	b = appendString(b, 3, a.Email)
	b = appendString(b, 4, a.Phone)
	b = appendString(b, 5, a.Service)
	b = appendString(b, 6, a.Date)
	b = appendString(b, 7, a.Time)
	b = appendString(b, 8, string(a.Status))
	if !a.CreatedAt.IsZero() {
		b = appendVarint(b, 9, uint64(a.CreatedAt.UnixMilli()))
	}
	return b
}

func (m *Appointment) unmarshal(b []byte) error {
	a := &m.Appointment
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			a.ID = string(f.bytes)
		case 2:
			a.Name = string(f.bytes)
		case 3:
			a.Email = string(f.bytes)
		case 4:
			a.Phone = string(f.bytes)
		case 5:
			a.Service = string(f.bytes)
		case 6:
			a.Date = string(f.bytes)
		case 7:
			a.Time = string(f.bytes)
		case 8:
			a.Status = model.Status(f.bytes)
		case 9:
			a.CreatedAt = time.UnixMilli(int64(f.u64)).UTC()
		}
		return nil
	})
}

type AppointmentList struct {
	Appointments []model.Appointment // 1, repeated
}

func (m *AppointmentList) marshal() []byte {
	var b []byte
	for i := range m.Appointments {
		item := Appointment{m.Appointments[i]}
		b = appendMessage(b, 1, item.marshal())
	}
	return b
}

func (m *AppointmentList) unmarshal(b []byte) error {
	m.Appointments = []model.Appointment{}
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var item Appointment
		if err := item.unmarshal(f.bytes); err != nil {
			return err
		}
		m.Appointments = append(m.Appointments, item.Appointment)
		return nil
	})
}
