package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"appointment-booking-api/internal/model"
)

type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Dial connects to target without transport security. Extra options are
// applied after the defaults.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("rpc dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// WithToken returns a client that sends tok as a bearer token on every call.
func (c *Client) WithToken(tok string) *Client {
	return &Client{conn: c.conn, token: tok}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp message) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.conn.Invoke(ctx, fullMethod(method), req, resp)
}

func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.invoke(ctx, "Signup", &Credentials{Username: username, Password: password}, &Reply{})
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out Reply
	if err := c.invoke(ctx, "Login", &Credentials{Username: username, Password: password}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// CreateAppointment returns the id of the new appointment.
func (c *Client) CreateAppointment(ctx context.Context, b Booking) (string, error) {
	var out Reply
	if err := c.invoke(ctx, "CreateAppointment", &b, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	var out AppointmentList
	if err := c.invoke(ctx, "ListAppointments", &Empty{}, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) UpdateAppointmentStatus(ctx context.Context, id, status string) (*model.Appointment, error) {
	var out Appointment
	if err := c.invoke(ctx, "UpdateAppointmentStatus", &AppointmentRef{ID: id, Status: status}, &out); err != nil {
		return nil, err
	}
	return &out.Appointment, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.invoke(ctx, "DeleteAppointment", &AppointmentRef{ID: id}, &Reply{})
}
