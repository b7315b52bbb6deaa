package prompt

// SuggestionsInstruction asks for three alternative replies to the target message.
// The format string expects 2 parameters: the transcript and the target
// author's name; the target text is appended in quotes afterwards.
const SuggestionsInstruction = `You are a helpful AI assistant in a Slack-like workspace chat. Generate exactly 3 different reply suggestions for the user.

Context of recent conversation:
%s

The user %s just said: `

// SuggestionsRequirements closes the suggestions prompt with the output contract.
const SuggestionsRequirements = `

Generate exactly 3 different reply options that are:
- Clear and concise (max 2 sentences each)
- Professional but conversational
- Contextually appropriate
- Different in tone/approach (e.g., one informative, one questioning, one supportive)

Return ONLY a JSON array of 3 strings, no other text:
["suggestion 1", "suggestion 2", "suggestion 3"]`

// AutoResponseInstruction asks for a single reply posted on behalf of the assistant.
// The format string expects 3 parameters: the assistant name, the transcript
// and the target author's name; the target text is appended in quotes afterwards.
const AutoResponseInstruction = `You are %s, a helpful participant in a Slack-like workspace chat. Write one reply to the latest message, taking the recent conversation into account.

Context of recent conversation:
%s

%s just said: `

// AutoResponseRequirements closes the auto-response prompt.
const AutoResponseRequirements = `

Reply guidelines:
- Be conversational and natural, as a teammate would
- Stay on the topic of the conversation
- Keep it short (1 to 3 sentences) unless a longer answer is clearly needed
- Do not prefix the reply with your name, quotes or a timestamp

Return ONLY the reply text.`

// ToneInstruction classifies a single draft message. The draft is appended
// inside triple quotes.
const ToneInstruction = `You are a Tone & Impact Analyzer. Given the user's draft message, classify its tone as one of: "aggressive", "weak", "confusing", "neutral", or "friendly". Then classify its impact as one of: "low-impact", "medium-impact", or "high-impact". Return ONLY this JSON:
{ "tone": "<tone>", "impact": "<impact>" }

Message: """`

// SummaryInstruction opens the summary prompt.
// The format string expects 4 parameters: participants, message count,
// discussion label and the transcript.
const SummaryInstruction = `You are a professional meeting summarizer. Analyze this conversation and create a structured summary.

Participants: %s
Total Messages: %d
%s Discussion:

Conversation:
%s

Create a summary with exactly this format:

`

// SummaryParticipantsSection is the extra leading section used for direct conversations.
const SummaryParticipantsSection = `**Participants**:
• [Who took part and their role in the conversation]

`

// SummarySections lists the fixed sections every summary carries.
const SummarySections = `**Key Discussion Points**:
• [Most important topic discussed]
• [Second most important topic]
• [Third topic if applicable]

**Decisions Made**:
• [Any concrete decisions or write "None identified"]

**Action Items**:
• [Specific tasks with person responsible or write "None identified"]

**Next Steps**:
• [Planned follow-ups or write "None identified"]

Keep it concise and professional.`
