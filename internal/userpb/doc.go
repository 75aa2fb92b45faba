// Package userpb contains hand-maintained stubs for the user.UserService
// gRPC contract consumed by this tool.
//
// The contract is owned by the user-auth service behind the API gateway;
// this package only mirrors the two methods the load tester calls:
//
//	Register(RegisterRequest) returns (RegisterResponse)
//	Login(LoginRequest)       returns (LoginResponse)
//
// Messages carry legacy protobuf struct tags, which the grpc proto codec
// resolves at runtime, so no code generation step is required to build the
// tool. Field numbers must stay in sync with the service's user.proto.
//
// A server-side ServiceDesc is also provided so tests can register a mock
// implementation on an in-process listener.
package userpb
