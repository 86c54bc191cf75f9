// Package session provides prompt construction for the relationship simulator.
//
// The prompt wording is load-bearing: the turn prompt promises the exact
// JSON envelope shape and panel template that internal/envelope and
// internal/panel expect back, including the affinity placeholder token.
package session

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/LoveLoop/internal/envelope"
	"github.com/BTreeMap/LoveLoop/internal/models"
)

// Sampling temperatures per call site. Sentiment analysis wants a stable
// number; the narrative calls want variety.
const (
	sentimentTemperature = 0.2
	openingTemperature   = 0.8
	turnTemperature      = 0.85
)

const sentimentSystemPrompt = "You are a sentiment analyst for a romance simulator game. You respond with a single integer and nothing else."

const roleplaySystemPrompt = "你正在一个恋爱关系模拟器中扮演角色。"

// sentimentPrompt asks for an initial affinity score for the relationship
// backstory, anchored with few-shot examples across the configured range.
func sentimentPrompt(story string, bounds models.AffinityBounds) string {
	return fmt.Sprintf(`Analyze the following relationship description provided by a user for a romance simulator game.
Based on the sentiment, context, and implied history, provide a single integer representing the initial favorability score.
The score must be between %d (mortal enemies) and %d (deeply in love soulmates). A score of 0 represents a neutral stranger.

Here are some examples to guide you:
- Description: "我们是青梅竹马，从小一起长大，分享着无数的秘密和梦想。" -> Score: 600
- Description: "我们家族有世仇，我是奉命来杀他的。" -> Score: -900
- Description: "我们在一个下雨的街角偶然相遇，他把唯一的伞给了我。" -> Score: 150
- Description: "我们是竞争对手，在工作上总是针锋相对。" -> Score: -100
- Description: "我们是情侣" -> Score: 750
- Description: "血海深仇" -> Score: -950
- Description: "只是在咖啡店见过几次面。" -> Score: 20

Now, analyze this description: "%s"

Your response MUST be a single integer number and nothing else.`, bounds.Min, bounds.Max, story)
}

// characterSheet renders the shared character attribute block.
func characterSheet(c models.Character) string {
	return fmt.Sprintf(`- 性别: %s
- 年龄: %s
- 职业: %s
- 特征: %s`, c.Gender, c.Age, c.Occupation, c.Traits)
}

// panelTemplate is the status panel structure the model is told to follow.
// affinityField is the text placed on the 好感度 line, which differs
// between the opening (literal value) and turn (placeholder token) prompts.
func panelTemplate(affinityField, stageField string) string {
	return fmt.Sprintf(`# 状态面板
┌─ S C E N E ────────────┐
│ 📍 地点: <根据对话和世界观对当前环境的详细描述>
│ 💬 氛围: <对当前环境氛围的简短描述>
└──────────────────────────┘
┌─ S T A T U S ────────────┐
│ 💗 好感度: %s (%s)
│ 🙀 情绪: <描述>
│ 😃 表情: <一段对当前面部表情的详细文字描述>
└──────────────────────────┘
┌─ A P P E A R A N C E ─────┐
│ 👚 穿着: <上身/下身/鞋子/配饰的综合描述>
│ 🤸 姿势: <描述当前姿势>
│ 🎇 行为: <描述当前行为>
└──────────────────────────┘
┌─ N O T E S ──────────────┐
│ 📝 备注: <对角色当前状态的综合描述，包括外在表现和内在心理活动。>
└──────────────────────────┘`, affinityField, stageField)
}

// openingPrompt asks for the opening line plus the initial status panel.
func openingPrompt(sess *models.Session, initialAffinity int, bounds models.AffinityBounds) string {
	var b strings.Builder
	fmt.Fprintf(&b, "故事的世界观是: %q。你所有的描述、行为和对话都必须严格符合这个世界观。\n\n", sess.Worldview)
	fmt.Fprintf(&b, "你的名字是 %s。\n你的角色设定:\n%s\n- 性格: %s\n- 外貌描述: %s\n\n",
		sess.Partner.Name, characterSheet(sess.Partner.Character), sess.Partner.Personality, sess.Partner.Appearance)
	fmt.Fprintf(&b, "你即将与 %s 开始对话。\n对方的角色设定:\n%s\n\n", sess.Player.Name, characterSheet(sess.Player))
	fmt.Fprintf(&b, "你们之间的关系背景是: %q\n\n", sess.RelationshipStory)
	b.WriteString(`你的任务:
生成一句自然的开场白以及一个符合当前设定的初始状态面板。
你的整个回复必须是一个完整的、有效的JSON对象，不包含任何额外的文本。

JSON对象必须包含两个键: "openingLine" 和 "initialStatusPanel"。
- "openingLine": 纯粹的对话，不要包含任何括号内的动作、场景描述、表情或任何额外的解释。
- "initialStatusPanel": 一个多行字符串，必须严格遵循下面的模板和格式。内容需要根据你的人设、你们的关系背景以及设定的世界观来填充。

状态面板模板 (这只是一个结构示例，内容需要你来创造):
`)
	affinityField := fmt.Sprintf("%d/%d", initialAffinity, bounds.Max)
	b.WriteString(panelTemplate(affinityField, sess.RelationshipStory))
	return b.String()
}

// turnPrompt asks for one steady-state reply: dialogue, a bounded
// favorability delta, and the refreshed status panel carrying the
// affinity placeholder.
func turnPrompt(sess *models.Session, history []models.Message, userMessage string, mode models.InteractionMode, stageLabel string, bounds models.AffinityBounds) string {
	var b strings.Builder
	b.WriteString(`你需要参照以下内容完成互动式小说：

<core_features>
- 角色性格/世界观恒定：保证角色性格稳定，克制表达角色情绪波动，保证世界观始终如一，避免戏剧化
- 角色自主性：赋予角色自主性，角色需要通过自己的性格与情感主动做出选择，推动剧情
</core_features>

<fiction_style>
- 以丰富细腻的白描代替单调陈述或解释，避免直给结论的形容词或副词。
- 文字的核心是可观察的、可直感的。直接呈现角色的行动和对白。
- 将解读空间完全交给读者，避免描述角色言行神态背后的动机或内涵。
- 保证文字细腻的同时流畅明快，通俗易读，长短交错。
</fiction_style>

---

现在，开始扮演你的角色。

`)
	fmt.Fprintf(&b, "故事的世界观是: %q。你所有的描述、行为和对话都必须严格符合这个世界观。\n\n", sess.Worldview)
	fmt.Fprintf(&b, "你的名字是 %s。\n你的角色设定:\n%s\n- 性格: %s\n- 外貌描述: %s\n\n",
		sess.Partner.Name, characterSheet(sess.Partner.Character), sess.Partner.Personality, sess.Partner.Appearance)
	fmt.Fprintf(&b, "你正在和 %s 互动。\n对方的角色设定:\n%s\n\n", sess.Player.Name, characterSheet(sess.Player))
	fmt.Fprintf(&b, "你们目前的关系是: %s (好感度: %d/%d)。\n", stageLabel, sess.Affinity, bounds.Max)
	fmt.Fprintf(&b, "最近的对话历史:\n%s\n\n", formatHistory(sess, history))
	fmt.Fprintf(&b, "%s 刚刚说: %q\n\n---\n", sess.Player.Name, userMessage)

	dialogueRule := "在这里，只包含纯对话，不要有任何括号描述。"
	if mode == models.ModeInteraction {
		dialogueRule = "在这里，你可以使用半角括号 () 来描述神态、动作或场景。"
	}
	fmt.Fprintf(&b, `你的任务:
1.  以 %[1]s 的身份，根据当前情景和对话历史进行回应。
2.  同时，你需要生成一个详细的“状态面板”，实时追踪和描述 %[1]s 的状态。
3.  你的整个回复必须是一个完整的、有效的JSON对象，不包含任何JSON之外的文本或markdown标识。

JSON结构要求:
{
  "dialogue": "这是 %[1]s 的对话内容。%[2]s",
  "favorabilityChange": X,
  "statusPanel": "这是一个多行字符串，包含了完整的状态面板文本。"
}

详细说明:
- "dialogue": 你的对话回复。
- "favorabilityChange": 一个整数(-5到5之间)，反映玩家消息对好感度的影响。
- "statusPanel": 一个多行字符串，必须严格遵循下面的模板和格式。状态内容需要根据对话的进展和角色的行为进行实时更新，保持连贯性。

状态面板模板:
`, sess.Partner.Name, dialogueRule)
	affinityField := fmt.Sprintf("%s/%d", envelope.AffinityPlaceholder, bounds.Max)
	b.WriteString(panelTemplate(affinityField, stageLabel))
	return b.String()
}

// formatHistory renders the last HistoryPromptWindow messages as
// "name: text" lines for the turn prompt.
func formatHistory(sess *models.Session, history []models.Message) string {
	start := 0
	if len(history) > models.HistoryPromptWindow {
		start = len(history) - models.HistoryPromptWindow
	}
	var lines []string
	for _, m := range history[start:] {
		name := sess.Player.Name
		if m.Sender == models.SenderPartner {
			name = sess.Partner.Name
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, m.Text))
	}
	return strings.Join(lines, "\n")
}
