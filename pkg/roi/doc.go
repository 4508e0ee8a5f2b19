// Package roi provides types, interfaces, and helpers for working with the
// ROI Solutions donor-management REST API.
//
// # Overview
//
// The roi package defines the resources (Donor, DonorEmailAddress,
// DonorPassportMembership), the Client and DonorsClient interfaces, the error
// taxonomy, and the PagedResults cursor. A concrete implementation is provided
// by the roiclient package, which wires configuration, transport, and the
// session token.
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/roi/pkg/roi"
//	  "github.com/fivetwenty-io/roi/pkg/roiclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := roiclient.New(ctx, &roi.Config{
//	    UserID: "user", Password: "secret", ClientCode: "CODE",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  results, err := cli.Donors().Search(ctx, &roi.DonorSearchParams{NameLast: "Doe"})
//	  if err != nil { log.Fatal(err) }
//
//	  donors, err := results.Collect(ctx)
//	  _ = donors
//	}
//
// # Sessions
//
// The session token is fetched lazily and expires at midnight of the API's
// own calendar day. A TokenCache (memory, YAML file, NATS KV, or SQL) lets
// several clients or processes share one session.
//
// # Errors
//
// Non-2xx responses become *RequestError values whose Kind is derived from
// the status code reported in the API's error body. Helpers such as
// IsNotFound, IsAccessDenied, and IsTooManyRequests branch on common cases.
// Invalid arguments fail with a *ValidationError before any request is sent.
package roi
