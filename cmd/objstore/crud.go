/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/objectstore"
	"github.com/suparena/objectstore/record"
	"github.com/suparena/objectstore/storagemodels"
)

const whereHelp = `condition "field op value", repeatable and AND-joined. op is one of
=, !=, <, <=, >, >=, in, not in. The value is parsed as JSON, falling back to a
plain string`

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("where", "w", nil, whereHelp)
	cmd.Flags().String("native", "", "backend-native filter applied in addition to the conditions")
}

func queryFromFlags(cmd *cobra.Command) (storagemodels.Query, error) {
	exprs, _ := cmd.Flags().GetStringArray("where")
	conditions, err := parseWhereAll(exprs)
	if err != nil {
		return storagemodels.Query{}, err
	}
	q := storagemodels.NewQuery(conditions...)
	if native, _ := cmd.Flags().GetString("native"); native != "" {
		q = q.WithNative(native)
	}
	return q, nil
}

// parseBody reads a document argument and fills in missing base fields.
func parseBody(arg string) (storagemodels.Document, error) {
	doc, err := record.ParseDocument([]byte(arg))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if _, ok := doc[storagemodels.IDField]; !ok {
		doc[storagemodels.IDField] = ""
	}
	if _, ok := doc[storagemodels.TimestampField]; !ok {
		doc[storagemodels.TimestampField] = int64(0)
	}
	return doc, nil
}

// withStore runs fn against the configured store and prints its result.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, store *objectstore.ObjectStore) *record.Result) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	res := fn(ctx, store)
	if !res.OK() {
		return res.Err()
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(res.Payload()))
	logger := a.logger()
	logger.Debug().Str("result", res.Message()).Msg("done")
	return nil
}

func (a *app) getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <type>",
		Short: "Print the records of a type matching the conditions",
		Example: `  objstore get Widget --where "int_arg = 5" --where "str_arg = x"
  objstore get Widget --where "_id in [\"a\", \"b\"]"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, store *objectstore.ObjectStore) *record.Result {
				return store.Get(ctx, a.settings.Database.Schema, args[0], q)
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "put <type> <document>",
		Short:   "Store a JSON document as a record of a type",
		Example: `  objstore put Widget '{"int_arg": 5, "bool_arg": false, "str_arg": "x"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseBody(args[1])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, store *objectstore.ObjectStore) *record.Result {
				return store.Put(ctx, a.settings.Database.Schema, args[0], doc)
			})
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update <type> <fields>",
		Short:   "Set fields on every matching record of a type",
		Example: `  objstore update Widget '{"str_arg": "y"}' --where "int_arg = 5"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseBody(args[1])
			if err != nil {
				return err
			}
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, store *objectstore.ObjectStore) *record.Result {
				return store.Update(ctx, a.settings.Database.Schema, args[0], doc, q)
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <type>",
		Short:   "Delete every matching record of a type",
		Example: `  objstore remove Widget --where "int_arg >= 10"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			if len(q.Conditions) == 0 && !q.UseNative && !all {
				return fmt.Errorf("refusing to remove every %s record without --all", args[0])
			}
			return a.withStore(cmd, func(ctx context.Context, store *objectstore.ObjectStore) *record.Result {
				return store.Remove(ctx, a.settings.Database.Schema, args[0], q)
			})
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().Bool("all", false, "allow removing without conditions")
	return cmd
}
