// usercall sends RPCs to a running userd.
//
// Usage:
//
//	usercall [--url=http://localhost:8787/myapi]
//
// It adds two users, reads a header from the response side-channel,
// then fetches one user back and prints it in the readable flavor.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/soialang/soia-go/internal/userapi"
	"github.com/soialang/soia-go/service"
	"github.com/soialang/soia-go/soia"
)

func main() {
	url := "http://localhost:8787/myapi"
	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasPrefix(arg, "--url="):
			url = strings.TrimPrefix(arg, "--url=")
		default:
			fatal("unknown argument: %s", arg)
		}
	}

	client := service.NewClient(url)
	ctx := context.Background()

	fmt.Println("About to add 2 users: John Doe and Tarzan")

	john, err := userapi.User.Partial(
		soia.F("user_id", soia.Int64(42)),
		soia.F("name", soia.Str("John Doe")),
	)
	if err != nil {
		fatal("build user: %v", err)
	}
	if err := addUser(ctx, client, john, nil); err != nil {
		fatal("add John Doe: %v", err)
	}

	var resHeaders service.Headers
	if err := addUser(ctx, client, userapi.Tarzan, &resHeaders); err != nil {
		fatal("add Tarzan: %v", err)
	}
	fmt.Printf("Value of X-Bar header: %s\n", resHeaders.Get("X-Bar"))

	getReq, err := userapi.GetUserRequest.Partial(soia.F("user_id", soia.Int64(123)))
	if err != nil {
		fatal("build request: %v", err)
	}
	res, err := client.InvokeRemote(ctx, userapi.GetUser, getReq)
	if err != nil {
		fatal("get user: %v", err)
	}
	found, err := res.Field("user")
	if err != nil {
		fatal("read response: %v", err)
	}
	code, err := soia.NewSerializer(soia.RecordOf(userapi.User)).
		ToJSONCodeWithOpts(found, soia.EncodeOpts{Readable: true})
	if err != nil {
		fatal("render user: %v", err)
	}
	fmt.Printf("Found user: %s\n", code)
}

func addUser(ctx context.Context, client *service.Client, user *soia.Value, resHeaders *service.Headers) error {
	req, err := userapi.AddUserRequest.Partial(soia.F("user", user))
	if err != nil {
		return err
	}
	opts := []service.CallOption{service.WithHeader("X-Foo", "hi")}
	if resHeaders != nil {
		opts = append(opts, service.WithResponseHeaders(resHeaders))
	}
	_, err = client.InvokeRemote(ctx, userapi.AddUser, req, opts...)
	return err
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "usercall: "+format+"\n", args...)
	os.Exit(1)
}
