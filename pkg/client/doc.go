/*
Package client provides a Go client for the task submission API.

The client wraps the HTTP endpoints exposed by pkg/api so that programs
and the submit subcommand can enqueue tasks without hand-rolling requests.
Server-side rejections surface as errors carrying the server's own message.

# Usage

	c := client.New("http://localhost:8080")

	priority := 9
	resp, err := c.Submit(ctx, &client.SubmitRequest{
		TaskType: "email",
		Payload: map[string]any{
			"from":    "ops@example.com",
			"to":      "team@example.com",
			"subject": "Weekly digest",
			"content": "All systems nominal.",
		},
		Priority: &priority,
	})
	if err != nil {
		return err
	}
	fmt.Println("task:", resp.TaskID)
	fmt.Println("follow:", resp.SSEURL)

# Integration Points

  - pkg/api: the server this client targets
  - cmd/dtqs: the submit subcommand is built on this package
*/
package client
