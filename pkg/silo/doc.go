/*
Package silo implements the per-(user, silo-name) scoped view onto a Store,
with read-through-to-human-prompt fallback.

A Silo never talks to a channel or the Machine directly — it only knows a
Prompter function value, supplied at construction, that asks a question and
returns an eventual answer. This keeps the Store free of prompting policy
and the Machine free of Store semantics: pkg/machine wires the two together
by constructing a Silo per handle with a Prompter that forwards through its
own ChannelPrompt.
*/
package silo
