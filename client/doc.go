// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

/*
Package client is the Go client for the Unbounded document database.

Creating a client:

	c, err := client.NewClient(
		client.OptClientRegion("aws-us-east-2"),
		client.OptClientCredentials(username, password),
	)

Inline operations:

	db := c.Database("people")
	res, err := db.Match(ctx, map[string]interface{}{"city": "Austin"}, nil)

Building an operation:

	res, err := db.NewQuery().
		Where(client.Func("function(o, min) { return o.age >= min; }")).Bind(21).
		Avg("age").
		Send(ctx)

Queries which the service runs in the background are waited for and their
result files fetched before Send returns. An asynchronous handle returns the
Task instead:

	adb, _ := db.Async()
	res, _ := adb.Match(ctx, nil, nil)
	fr, err := c.Wait(ctx, res.Task)
	records, err := fr.Fetch(ctx)

Large inserts go through an Uploader:

	up, err := db.StartUpload(nil, nil)
	for _, r := range records {
		if err := up.Add(ctx, r); err != nil {
			return err
		}
	}
	err = up.Finish(ctx)

Every error returned is an *errors.Error from
github.com/molecula/unbounded/errors.
*/
package client
