package docgen

const transcriptSystemPrompt = `You convert raw diarized meeting transcripts into a clean, readable transcript document in markdown. Keep every substantive statement, fix obvious disfluencies, and attribute each statement to its speaker using the participant list. Do not invent content.`

const transcriptUserPrompt = `Participants:
%s
Produce the transcript document for this recording:

%s`

const transcriptContinuation = `Continue the transcript document with the additional transcript data below. Keep the same structure and formatting and pick up exactly where the previous fragment ended.`

const summarySystemPrompt = `You write concise meeting summaries in markdown. Cover the topics discussed, the decisions made, and the action items with owners. Base everything strictly on the transcript.`

const summaryUserPrompt = `Participants:
%s
Summarize this meeting:

%s`

const summaryContinuation = `Continue the summary using the additional transcript data below. Build on the part already written, keep its structure, and do not repeat information it already covers.`
