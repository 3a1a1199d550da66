package provider

import "encoding/json"

const (
	methodSplitText  = "LMT_split_text"
	methodHandleJobs = "LMT_handle_jobs"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int64  `json:"id"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type commonJobParams struct {
	Mode            string `json:"mode"`
	RegionalVariant string `json:"regional_variant,omitempty"`
}

// LMT_split_text

type splitParams struct {
	CommonJobParams commonJobParams `json:"commonJobParams"`
	Lang            splitLang       `json:"lang"`
	Texts           []string        `json:"texts"`
	TextType        string          `json:"textType"`
}

type splitLang struct {
	LangUserSelected string `json:"lang_user_selected"`
}

type splitResult struct {
	Lang struct {
		Detected string `json:"detected"`
	} `json:"lang"`
	Texts []struct {
		Chunks []struct {
			Sentences []sentence `json:"sentences"`
		} `json:"chunks"`
	} `json:"texts"`
}

type sentence struct {
	Text   string `json:"text"`
	Prefix string `json:"prefix"`
}

// LMT_handle_jobs

type jobSentence struct {
	Prefix string `json:"prefix"`
	Text   string `json:"text"`
	ID     int    `json:"id"`
}

type job struct {
	Kind               string        `json:"kind"`
	PreferredNumBeams  int           `json:"preferred_num_beams"`
	RawEnContextBefore []string      `json:"raw_en_context_before"`
	RawEnContextAfter  []string      `json:"raw_en_context_after"`
	Sentences          []jobSentence `json:"sentences"`
}

type jobsLang struct {
	SourceLangComputed string `json:"source_lang_computed"`
	TargetLang         string `json:"target_lang"`
}

type jobsParams struct {
	CommonJobParams commonJobParams `json:"commonJobParams"`
	Lang            jobsLang        `json:"lang"`
	Jobs            []job           `json:"jobs"`
	Priority        int             `json:"priority"`
	Timestamp       int64           `json:"timestamp"`
}

type jobsResult struct {
	Translations []struct {
		Beams []struct {
			Sentences []struct {
				Text string `json:"text"`
			} `json:"sentences"`
		} `json:"beams"`
	} `json:"translations"`
}
