package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var (
		search string
		facets []string
		sortBy string
	)
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List the records of an entity",
		Long: `List prints the records of an entity in display order, narrowed by an
optional search term and facet selections.

Example:
  backoffice list faqs --search shipping
  backoffice list items --facet category=Electronics
  backoffice list orders --sort status`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseFacets(facets)
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrValidation, err)
			}
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				p.SetFilter(types.FilterState{Search: search, Facets: selected, SortBy: sortBy})
				return writeRecords(cmd.OutOrStdout(), p.Schema, p.Visible(), a.flags.jsonMode)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search term")
	cmd.Flags().StringArrayVar(&facets, "facet", nil, "facet selection name=value (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort field (default: entity's default order)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				r, err := p.Store.Get(args[1])
				if err != nil {
					return err
				}
				return writeRecord(cmd.OutOrStdout(), p.Schema, r, a.flags.jsonMode)
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		fields      []string
		position    string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "create <entity> --field key=value...",
		Short: "Create a record",
		Long: `Create adds a record to an entity. Field values that parse as JSON keep
their type; anything else is stored as a string.

Example:
  backoffice create faqs --field title="Do you ship abroad?" --field detail="Yes."
  backoffice create items --field title=Lamp --field price=19.99 --position prepend`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := parseAssignments(fields)
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrValidation, err)
			}
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				pos, err := types.ParsePosition(position, p.Schema.Insert)
				if err != nil {
					return err
				}
				if err := p.Dialog.BeginCreate(draft, pos); err != nil {
					return err
				}
				return a.confirm(cmd, s, p, interactive)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "field assignment key=value (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for rejected fields instead of failing")
	cmd.Flags().StringVar(&position, "position", "", "insert position: append or prepend (default: entity's)")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		fields      []string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "update <entity> <id> --field key=value...",
		Short: "Update fields of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseAssignments(fields)
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrValidation, err)
			}
			if len(patch) == 0 {
				return fmt.Errorf("%w: no fields to update", types.ErrValidation)
			}
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				target, err := p.Store.Get(args[1])
				if err != nil {
					return err
				}
				if err := p.Dialog.BeginEdit(target, patch); err != nil {
					return err
				}
				return a.confirm(cmd, s, p, interactive)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "field assignment key=value (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for rejected fields instead of failing")
	return cmd
}

// confirm commits the dialog's pending create or edit and prints the result.
// With interactive set, a validation failure keeps the dialog open and asks
// for the rejected fields on stdin until the draft is accepted or an answer
// is left blank.
func (a *app) confirm(cmd *cobra.Command, s *admin.Session, p *admin.Page, interactive bool) error {
	in := bufio.NewReader(cmd.InOrStdin())
	for {
		err := p.Dialog.Confirm(cmd.Context())
		if err == nil {
			break
		}
		var verr *types.ValidationError
		if !interactive || !errors.As(err, &verr) || len(verr.Fields) == 0 {
			_ = p.Dialog.Cancel()
			return err
		}
		s.Notifications().Drain()
		draft, ok := askFields(cmd, in, err, verr.Fields, p)
		if !ok {
			_ = p.Dialog.Cancel()
			return err
		}
		if err := p.Dialog.SetDraft(draft); err != nil {
			return err
		}
	}
	rec, _ := p.Dialog.Result()
	if err := p.Dialog.Dismiss(); err != nil {
		return err
	}
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	writeNotifications(cmd.OutOrStdout(), s.Notifications().Drain())
	return writeRecord(cmd.OutOrStdout(), p.Schema, rec, false)
}

// askFields prompts for each rejected field and returns the pending draft
// with the answers applied. ok is false when an answer is blank.
func askFields(cmd *cobra.Command, in *bufio.Reader, cause error, fields []string, p *admin.Page) (map[string]any, bool) {
	pending, _ := p.Dialog.Pending()
	draft := pending.Draft
	if draft == nil {
		draft = make(map[string]any, len(fields))
	}
	fmt.Fprintln(cmd.OutOrStdout(), cause)
	for _, f := range fields {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ", f)
		line, _ := in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, false
		}
		draft[f] = parseValue(line)
	}
	return draft, true
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <entity> <id>...",
		Short: "Delete records after confirmation",
		Long: `Delete removes one or more records. Unless --yes is given the command
asks for confirmation and deletes nothing on any answer but yes.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				var targets []types.Record
				for _, id := range args[1:] {
					r, err := p.Store.Get(id)
					if err != nil {
						return err
					}
					targets = append(targets, r)
				}
				if err := p.Dialog.BeginDelete(targets...); err != nil {
					return err
				}
				pending, _ := p.Dialog.Pending()
				if !yes && !askYesNo(cmd, fmt.Sprintf("Delete %s %s?", p.Schema.Label, strings.Join(pending.IDs(), ", "))) {
					if err := p.Dialog.Cancel(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if err := p.Dialog.Confirm(cmd.Context()); err != nil {
					_ = p.Dialog.Cancel()
					return err
				}
				if err := p.Dialog.Dismiss(); err != nil {
					return err
				}
				notes := s.Notifications().Drain()
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), notes)
				}
				writeNotifications(cmd.OutOrStdout(), notes)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// askYesNo prompts on stdout and reads one answer from stdin.
func askYesNo(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <entity> <id> <index>",
		Short: "Move a record to a zero-based position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("%w: index %q", types.ErrInvalidPosition, args[2])
			}
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				moved, err := p.Reorder.Move(cmd.Context(), args[1], target)
				if err != nil {
					return err
				}
				if !moved && !a.flags.jsonMode {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s is already at %d\n", p.Schema.Label, args[1], target)
					return nil
				}
				return a.writeOrder(cmd, s, p)
			})
		},
	}
}

func newResetOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-order <entity>",
		Short: "Restore the id order of an entity and renumber priorities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *admin.Session) error {
				p, err := page(s, args[0])
				if err != nil {
					return err
				}
				if err := p.Reorder.Reset(cmd.Context()); err != nil {
					return err
				}
				return a.writeOrder(cmd, s, p)
			})
		},
	}
}

func (a *app) writeOrder(cmd *cobra.Command, s *admin.Session, p *admin.Page) error {
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), p.Store.IDs())
	}
	writeNotifications(cmd.OutOrStdout(), s.Notifications().Drain())
	return writeRecords(cmd.OutOrStdout(), p.Schema, p.Store.Records(), false)
}
