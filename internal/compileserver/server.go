// Package compileserver exposes component A through E's pipeline as a
// gRPC CompileService, the server-side mirror of the teacher's
// builtins_grpc.go client bindings: a .proto is parsed at runtime with
// protoreflect/protoparse and wired into a dynamic grpc.ServiceDesc
// rather than requiring protoc-generated stubs, so the handler works
// from dynamic.Message values the same way FunxyGrpcHandler.HandleUnary
// does.
package compileserver

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"sort"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/tolklang/tolk/internal/builtins"
	"github.com/tolklang/tolk/internal/config"
	"github.com/tolklang/tolk/internal/pipeline"
)

//go:embed proto/tolk.proto
var protoSource string

const serviceName = "tolk.compileserver.CompileService"

// Server wraps a *grpc.Server already registered with the CompileService
// built from proto/tolk.proto, ready to Serve on a listener.
type Server struct {
	grpc     *grpc.Server
	registry *builtins.Registry
	sd       *desc.ServiceDescriptor
}

// New parses the embedded proto and registers CompileService against a
// fresh grpc.Server.
func New() (*Server, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"tolk.proto": protoSource}),
	}
	fds, err := parser.ParseFiles("tolk.proto")
	if err != nil {
		return nil, fmt.Errorf("compileserver: parsing embedded proto: %w", err)
	}
	sd := fds[0].FindService(serviceName)
	if sd == nil {
		return nil, fmt.Errorf("compileserver: service %s not found in embedded proto", serviceName)
	}

	s := &Server{grpc: grpc.NewServer(), registry: builtins.Std(), sd: sd}
	s.register()
	return s, nil
}

// GRPC exposes the underlying *grpc.Server for callers that want to add
// reflection or interceptors before Serve.
func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Serve listens on addr and blocks serving CompileService until the
// listener closes or the server is stopped.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("compileserver: listen on %s: %w", addr, err)
	}
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight RPCs before returning.
func (s *Server) Stop() { s.grpc.GracefulStop() }

func (s *Server) register() {
	svcDesc := &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*interface{})(nil),
		Metadata:    s.sd.GetFile().GetName(),
	}
	for _, method := range s.sd.GetMethods() {
		md := method
		svcDesc.Methods = append(svcDesc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				return srv.(*Server).dispatch(ctx, md, dec)
			},
		})
	}
	s.grpc.RegisterService(svcDesc, s)
}

func (s *Server) dispatch(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error) (interface{}, error) {
	req := dynamic.NewMessage(md.GetInputType())
	if err := dec(req); err != nil {
		return nil, err
	}
	resp := dynamic.NewMessage(md.GetOutputType())

	switch md.GetName() {
	case "Compile":
		return s.handleCompile(req, resp)
	case "ListBuiltins":
		return s.handleListBuiltins(resp)
	default:
		return nil, fmt.Errorf("compileserver: unhandled method %s", md.GetName())
	}
}

func (s *Server) handleCompile(req, resp *dynamic.Message) (*dynamic.Message, error) {
	unitsJSON, _ := req.TryGetFieldByName("units_json")
	optLevel, _ := req.TryGetFieldByName("opt_level")
	pragmaNames, _ := req.TryGetFieldByName("pragmas")

	if lvl, ok := optLevel.(int32); ok {
		prev := config.OptLevel
		config.OptLevel = int(lvl)
		defer func() { config.OptLevel = prev }()
	}

	var diags []map[string]interface{}
	var defs []pipeline.FuncDef
	if b, ok := unitsJSON.([]byte); ok && len(b) > 0 {
		var convErrs []error
		defs, convErrs = DecodeUnits(b)
		for _, err := range convErrs {
			diags = append(diags, map[string]interface{}{"code": "C002", "message": err.Error()})
		}
	}

	pragmas := config.NewPragmaSet()
	for _, name := range toStringList(pragmaNames) {
		if warning, err := pragmas.Enable(name); err != nil {
			diags = append(diags, map[string]interface{}{"code": "C002", "message": err.Error()})
		} else if warning != "" {
			diags = append(diags, map[string]interface{}{"code": "C001", "message": warning, "warning": true})
		}
	}

	ctx := pipeline.NewPipelineContext(defs)
	ctx.Pragmas = pragmas
	final := pipeline.Standard().Run(ctx)

	for _, e := range final.Errors {
		diags = append(diags, map[string]interface{}{
			"code":    string(e.Code),
			"location": e.Where.String(),
			"message": e.Message,
			"warning": e.Warning,
		})
	}

	unitMsgs := make([]*dynamic.Message, 0, len(final.Results))
	for _, r := range final.Results {
		if r.Failed || r.Text == "" {
			continue
		}
		u := dynamic.NewMessage(findMessageType(resp, "CompiledUnit"))
		u.SetFieldByName("name", r.Def.Name)
		u.SetFieldByName("asm", r.Text)
		unitMsgs = append(unitMsgs, u)
	}
	diagMsgs := make([]*dynamic.Message, 0, len(diags))
	for _, d := range diags {
		m := dynamic.NewMessage(findMessageType(resp, "Diagnostic"))
		m.SetFieldByName("code", d["code"])
		if loc, ok := d["location"]; ok {
			m.SetFieldByName("location", loc)
		}
		m.SetFieldByName("message", d["message"])
		if w, ok := d["warning"].(bool); ok {
			m.SetFieldByName("warning", w)
		}
		diagMsgs = append(diagMsgs, m)
	}

	resp.SetFieldByName("units", toInterfaceSlice(unitMsgs))
	resp.SetFieldByName("diagnostics", toInterfaceSlice(diagMsgs))
	return resp, nil
}

func (s *Server) handleListBuiltins(resp *dynamic.Message) (*dynamic.Message, error) {
	names := s.registry.Names()
	sort.Strings(names)
	resp.SetFieldByName("names", toStringSlice(names))
	return resp, nil
}

func findMessageType(msg *dynamic.Message, name string) *desc.MessageDescriptor {
	for _, f := range msg.GetMessageDescriptor().GetFile().GetMessageTypes() {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func toInterfaceSlice(msgs []*dynamic.Message) []interface{} {
	out := make([]interface{}, len(msgs))
	for i, m := range msgs {
		out[i] = m
	}
	return out
}

func toStringSlice(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// toStringList converts a dynamic repeated-string field's value (a
// []interface{} of string elements, or nil if the field was left
// unset) into a plain []string.
func toStringList(v interface{}) []string {
	elems, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
