// Package roiclient provides the primary entry point for constructing an
// ROI Solutions REST API client that implements the roi.Client interface.
//
// It layers configuration, HTTP transport, and session handling on top of
// the types defined in the roi package. Most applications should import
// roiclient to build a client, then use the returned roi.Client to reach the
// donor operations through Donors().
//
// Quick start
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
//
//	  cli, err := roiclient.New(ctx, &roi.Config{
//	    BaseURL:    "https://secure2.roisolutions.net/api/1.0/",
//	    UserID:     "user",
//	    Password:   "pass",
//	    ClientCode: "CLIENT",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  donor, err := cli.Donors().Get(ctx, "1234567")
//	  if err != nil { log.Fatal(err) }
//	  _ = donor
//	}
//
// # Sessions
//
// The client logs on before the first call that needs a token and reuses the
// session until midnight of the API's calendar day. Set Config.TokenCache, or
// Config.Cache, to share the session between processes.
//
// # Helpers
//
// NewWithToken, NewWithPassword and NewFromEnv wrap New with the appropriate
// configuration.
package roiclient
