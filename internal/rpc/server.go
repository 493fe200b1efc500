package rpc

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
)

const ServiceName = "booking.v1.BookingService"

// BookingServer is the server API for booking.v1.BookingService.
type BookingServer interface {
	Signup(context.Context, *Credentials) (*Reply, error)
	Login(context.Context, *Credentials) (*Reply, error)
	CreateAppointment(context.Context, *Booking) (*Reply, error)
	ListAppointments(context.Context, *Empty) (*AppointmentList, error)
	UpdateAppointmentStatus(context.Context, *AppointmentRef) (*Appointment, error)
	DeleteAppointment(context.Context, *AppointmentRef) (*Reply, error)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// OpenMethods skip the admin gate. Signup still applies the bootstrap rule.
func OpenMethods() map[string]bool {
	return map[string]bool{
		fullMethod("Signup"):            true,
		fullMethod("Login"):             true,
		fullMethod("CreateAppointment"): true,
	}
}

func unary(name string, newReq func() message, call func(BookingServer, context.Context, message) (message, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			req := newReq()
			if err := dec(req); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServer), ctx, req.(message))
			}
			if ic == nil {
				return h(ctx, req)
			}
			return ic(ctx, req, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}, h)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Signup", func() message { return new(Credentials) },
			func(s BookingServer, ctx context.Context, m message) (message, error) {
				return s.Signup(ctx, m.(*Credentials))
			}),
		unary("Login", func() message { return new(Credentials) },
			func(s BookingServer, ctx context.Context, m message) (message, error) {
				return s.Login(ctx, m.(*Credentials))
			}),
		unary("CreateAppointment", func() message { return new(Booking) },
			func(s BookingServer, ctx context.Context, m message) (message, error) {
				return s.CreateAppointment(ctx, m.(*Booking))
			}),
		unary("ListAppointments", func() message { return new(Empty) },
			func(s BookingServer, ctx context.Context, m message) (message, error) {
				return s.ListAppointments(ctx, m.(*Empty))
			}),
		unary("UpdateAppointmentStatus", func() message { return new(AppointmentRef) },
			func(s BookingServer, ctx context.Context, m message) (message, error) {
				return s.UpdateAppointmentStatus(ctx, m.(*AppointmentRef))
			}),
		unary("DeleteAppointment", func() message { return new(AppointmentRef) },
			func(s BookingServer, ctx context.Context, m message) (message, error) {
				return s.DeleteAppointment(ctx, m.(*AppointmentRef))
			}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

type Server struct {
	appts *service.Appointments
	creds *service.Credentials
	log   *logrus.Entry
}

func NewServer(appts *service.Appointments, creds *service.Credentials, log *logrus.Logger) *Server {
	return &Server{appts: appts, creds: creds, log: log.WithField("component", "grpc")}
}

// NewGRPCServer returns a grpc.Server with the booking service registered
// behind the admin gate.
func NewGRPCServer(srv *Server, v middleware.Verifier, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(Codec{}),
		grpc.ChainUnaryInterceptor(middleware.Auth(v, OpenMethods())),
	}, opts...)
	s := grpc.NewServer(opts...)
	s.RegisterService(&ServiceDesc, srv)
	return s
}

func (s *Server) Signup(ctx context.Context, req *Credentials) (*Reply, error) {
	if err := s.creds.Register(ctx, req.Username, req.Password); err != nil {
		return nil, s.toStatus(err)
	}
	return &Reply{Message: "Admin registered successfully!"}, nil
}

func (s *Server) Login(ctx context.Context, req *Credentials) (*Reply, error) {
	tok, err := s.creds.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &Reply{Message: "Login successful!", Token: tok}, nil
}

func (s *Server) CreateAppointment(ctx context.Context, req *Booking) (*Reply, error) {
	a, err := s.appts.Create(ctx, service.BookingRequest(*req))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &Reply{Message: "Appointment booked successfully!", ID: a.ID}, nil
}

func (s *Server) ListAppointments(ctx context.Context, _ *Empty) (*AppointmentList, error) {
	list, err := s.appts.List(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &AppointmentList{Appointments: list}, nil
}

func (s *Server) UpdateAppointmentStatus(ctx context.Context, req *AppointmentRef) (*Appointment, error) {
	a, err := s.appts.UpdateStatus(ctx, req.ID, req.Status)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &Appointment{*a}, nil
}

func (s *Server) DeleteAppointment(ctx context.Context, req *AppointmentRef) (*Reply, error) {
	if err := s.appts.Delete(ctx, req.ID); err != nil {
		return nil, s.toStatus(err)
	}
	return &Reply{Message: "Appointment deleted successfully!"}, nil
}

func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidStatus), errors.Is(err, service.ErrMissingField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSignupClosed):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		s.log.WithError(err).Error("call failed")
		return status.Error(codes.Internal, "internal error")
	}
}
