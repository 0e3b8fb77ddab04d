package analyze

// Prompt templates for the analysis calls. The user prompts receive
// their inputs via fmt.Sprintf in declaration order.

const speakerSystemPrompt = `You analyze meeting transcripts. Speakers are labeled speaker_0, speaker_1, and so on. Infer each speaker's real name and role in the conversation from what is said, and write a short summary of the meeting.

Respond with a JSON object inside a ` + "```json" + ` code fence, shaped as:
{
  "speakers": {
    "speaker_0": {"name": "...", "role": "...", "confidence": "high|medium|low"}
  },
  "summary": "..."
}
Use "Unknown" as the name when the transcript gives no evidence.`

const speakerUserPrompt = `Speaker participation:
%s
Transcript:
%s`

const correctionSystemPrompt = `You review meeting transcripts produced by automatic speech recognition and find likely misrecognitions: garbled names, terms, and product words. Use the provided context to resolve domain vocabulary.

Respond with a JSON object inside a ` + "```json" + ` code fence, shaped as:
{
  "corrections": [
    {"original": "...", "corrected": "...", "reason": "..."}
  ]
}
Report only fragments you are confident are wrong; an empty list is a valid answer.`

const correctionUserPrompt = `Context:
%s

Transcript:
%s`

// noContext substitutes for an absent context document in the
// correction prompt.
const noContext = "No context information available."
