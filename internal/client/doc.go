// Package client wraps the gRPC channel to the remote user service.
//
// The Client exposes the two remote calls the load tester issues, Register
// and Login, each bounded by a per-call timeout. Every call returns an
// Outcome that classifies the result one of three ways:
//
//   - Success: the server answered normally
//   - RateLimited: the server answered RESOURCE_EXHAUSTED
//   - failed: any other error, kept with its message but not classified further
//
// Outcomes are values, not errors; the harness observes failures rather
// than propagating them.
//
// # Usage
//
//	c, err := client.Dial(client.Config{Addr: "localhost:50051"})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	out := c.Register(ctx, client.NewCredentials(0))
//	out.Record(st)
//	if out.Success {
//	    roster.Add(out.User)
//	}
package client
