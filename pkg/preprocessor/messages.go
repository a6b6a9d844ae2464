// pkg/preprocessor/messages.go
package preprocessor

import (
	"context"

	"github.com/pulsemetrics/feature-ingress/pkg/model"
)

// messageShape tags the two known chat message conventions. The variant is
// resolved once per record, by the presence of a Unix-epoch "ts" field
// versus an ISO-8601 "createdDateTime" field, instead of branching on field
// presence throughout the feature code.
type messageShape int

const (
	shapeUnknown messageShape = iota
	shapeEpoch                // channel convention: "ts", "user", "text", "thread_ts"
	shapeISO                  // chat convention: "createdDateTime", "from", "body", "replyToId"
)

func detectMessageShape(raw model.RawEvent) messageShape {
	if _, ok := raw["ts"]; ok {
		return shapeEpoch
	}
	if _, ok := raw["createdDateTime"]; ok {
		return shapeISO
	}
	return shapeUnknown
}

// Messages normalizes chat and channel messages. Author identity is hashed,
// body content is anonymized, thread linkage survives as a boolean, and
// reactions are preserved as name and count only.
func (p *Preprocessor) Messages(ctx context.Context, raw []model.RawEvent) ([]model.Message, model.BatchStats) {
	stats := model.BatchStats{Source: "messages", Input: len(raw)}
	messages := make([]model.Message, 0, len(raw))

	for _, event := range raw {
		var (
			msg model.Message
			err error
		)

		switch detectMessageShape(event) {
		case shapeEpoch:
			msg, err = p.normalizeEpochMessage(ctx, event)
		case shapeISO:
			msg, err = p.normalizeISOMessage(ctx, event)
		default:
			stats.AddSkip(stringField(event, "id"), "", "unknown_shape")
			continue
		}

		if err != nil {
			stats.AddSkip(stringField(event, "id"), "", "anonymization_failed")
			continue
		}

		messages = append(messages, msg)
		stats.Processed++
	}

	p.logBatch(stats)
	return messages, stats
}

// normalizeEpochMessage handles the epoch-timestamp channel shape.
func (p *Preprocessor) normalizeEpochMessage(ctx context.Context, event model.RawEvent) (model.Message, error) {
	ts, err := parseEpochTime(event["ts"])
	if err != nil {
		return model.Message{}, err
	}

	content, err := p.anon.AnonymizeContent(ctx, stringField(event, "text"))
	if err != nil {
		return model.Message{}, err
	}

	msg := model.Message{
		Timestamp: ts,
		ChannelID: stringField(event, "channel_id"),
		IsReply:   stringField(event, "thread_ts") != "",
		Content:   content,
		Reactions: extractReactions(event),
	}

	if user := stringField(event, "user"); user != "" {
		msg.AuthorToken = p.anon.HashIdentifier(user)
	}

	return msg, nil
}

// normalizeISOMessage handles the ISO-timestamp chat shape, including the
// rich HTML bodies that convention allows.
func (p *Preprocessor) normalizeISOMessage(ctx context.Context, event model.RawEvent) (model.Message, error) {
	ts, err := parseISOTime(stringField(event, "createdDateTime"))
	if err != nil {
		return model.Message{}, err
	}

	body := ""
	if bodyField := mapField(event, "body"); bodyField != nil {
		body = stripHTML(stringField(bodyField, "content"))
	}

	content, err := p.anon.AnonymizeContent(ctx, body)
	if err != nil {
		return model.Message{}, err
	}

	msg := model.Message{
		Timestamp:  ts,
		ChannelID:  stringField(event, "chat_id"),
		Importance: stringFieldOr(event, "importance", "normal"),
		IsReply:    stringField(event, "replyToId") != "",
		Content:    content,
	}

	if from := mapField(event, "from"); from != nil {
		if user := mapField(from, "user"); user != nil {
			msg.AuthorToken = p.anon.HashIdentifier(stringFieldOr(user, "id", "unknown"))
			msg.AuthorName = p.anon.AnonymizeName(stringField(user, "displayName"))
		}
	}

	return msg, nil
}

// extractReactions keeps reaction names and counts; any user lists inside
// reaction objects are dropped.
func extractReactions(event model.RawEvent) []model.Reaction {
	rawReactions := sliceField(event, "reactions")
	if len(rawReactions) == 0 {
		return nil
	}

	reactions := make([]model.Reaction, 0, len(rawReactions))
	for _, entry := range rawReactions {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		reaction := model.Reaction{Name: stringField(obj, "name")}
		if count, ok := floatField(obj, "count"); ok {
			reaction.Count = int(count)
		}
		reactions = append(reactions, reaction)
	}

	return reactions
}
