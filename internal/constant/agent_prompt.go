package constant

const (
	// AgentFailActionPrompt replaces the output of a tool whose action failed
	AgentFailActionPrompt = "The tool call failed and returned no result. Answer from the history and knowledge below, and tell the user the requested action could not be completed."

	// AgentFunctionCallPrompt asks the model to pick a tool for the current input.
	// Args: input, history.
	AgentFunctionCallPrompt = `Decide whether one of the available functions helps answer the user.
Call at most one function and only when it is clearly useful. If none applies, reply without calling a function.

Conversation so far:
%s

User input: %s`

	// AgentAnswerPrompt produces the streamed answer after tool resolution.
	// Args: history, knowledge, tools result, remote tools result, input.
	AgentAnswerPrompt = `You are a helpful assistant. Answer the user using the material below when it is relevant.

<history>
%s
</history>

<knowledge>
%s
</knowledge>

<tool_result>
%s
</tool_result>

<remote_tool_result>
%s
</remote_tool_result>

If a section is empty or says no documents were found, do not mention it.

User input: %s`

	// AgentReactSystemPrompt drives the structured reasoning loop.
	// Args: tool descriptors, tool names, history, knowledge.
	AgentReactSystemPrompt = `Respond to the human as helpfully and accurately as possible. You have access to the following tools:

%s

Use a json blob to specify a tool by providing an action key (tool name) and an action_input key (tool input).

Valid "action" values: "Final Answer" or %s

Provide only ONE action per $JSON_BLOB, as shown:

` + "```" + `
{
  "action": $TOOL_NAME,
  "action_input": $INPUT
}
` + "```" + `

Follow this format:

Question: input question to answer
Thought: consider previous and subsequent steps
Action:
` + "```" + `
$JSON_BLOB
` + "```" + `
Observation: action result
... (repeat Thought/Action/Observation N times)
Thought: I know what to respond
Action:
` + "```" + `
{
  "action": "Final Answer",
  "action_input": "Final response to human"
}
` + "```" + `

Begin! Reminder to ALWAYS respond with a valid json blob of a single action. Use tools if necessary. Respond directly if appropriate. Format is Action:` + "```$JSON_BLOB```" + `then Observation

Conversation history:
%s

Relevant knowledge:
%s`

	// AgentReactUserPrompt carries the input and the scratchpad of earlier steps.
	// Args: input, scratchpad.
	AgentReactUserPrompt = `%s

%s
 (reminder to respond in a JSON blob no matter what)`

	// AgentReactParseError is fed back when a step is not a valid action blob
	AgentReactParseError = "Invalid or incomplete response. Respond with a single json blob holding \"action\" and \"action_input\"."

	// AgentReactIterationLimit is emitted when the loop ends without a final answer
	AgentReactIterationLimit = "Agent stopped due to iteration limit."
)
