package snippets

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

type Framework string

const (
	FrameworkHTML   Framework = "html"
	FrameworkReact  Framework = "react"
	FrameworkVue    Framework = "vue"
	FrameworkSvelte Framework = "svelte"
	FrameworkOther  Framework = "other"
)

// Frameworks lists the supported frameworks in prompt order.
var Frameworks = []Framework{FrameworkHTML, FrameworkReact, FrameworkVue, FrameworkSvelte, FrameworkOther}

// Label returns a human-readable name for prompts.
func (f Framework) Label() string {
	switch f {
	case FrameworkHTML:
		return "HTML (vanilla JavaScript)"
	case FrameworkReact:
		return "React / Next.js"
	case FrameworkVue:
		return "Vue"
	case FrameworkSvelte:
		return "Svelte"
	default:
		return "Laravel / Django / Other"
	}
}

type Config struct {
	ServerURL string
	TestID    string
	Event     string // browser event carrying edits, e.g. abTestEditsTriggered
}

type SnippetFile struct {
	Filename string
	Content  string
}

// Generate renders the files needed to wire a page to the assignment script.
func Generate(framework Framework, config Config) ([]SnippetFile, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("server url is required")
	}
	config.ServerURL = strings.TrimRight(config.ServerURL, "/")
	if config.Event == "" {
		config.Event = "abTestEditsTriggered"
	}

	switch framework {
	case FrameworkReact:
		return render(config,
			file{"index.html", scriptTag},
			file{"useABTest.ts", reactHook},
			file{"usage.tsx", reactUsage},
		)
	case FrameworkVue:
		return render(config,
			file{"index.html", scriptTag},
			file{"useABTest.ts", vueComposable},
		)
	case FrameworkSvelte:
		return render(config,
			file{"app.html", scriptTag},
			file{"abtest.ts", svelteStore},
		)
	default:
		return render(config, file{"splithub.html", scriptTag + htmlListener})
	}
}

type file struct {
	name string
	body string
}

func render(config Config, files ...file) ([]SnippetFile, error) {
	out := make([]SnippetFile, 0, len(files))
	for _, f := range files {
		tmpl, err := template.New(f.name).Parse(f.body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, config); err != nil {
			return nil, fmt.Errorf("render %s: %w", f.name, err)
		}
		out = append(out, SnippetFile{Filename: f.name, Content: buf.String()})
	}
	return out, nil
}

const scriptTag = `<!-- Load before any other script so redirects happen early -->
<script src="{{.ServerURL}}/ab.js"></script>
`

const htmlListener = `
<script>
  window.addEventListener('{{.Event}}', function (e) {
    if (e.detail.testId === '{{.TestID}}') {
      document.querySelector('h1').textContent = e.detail.variant.value;
    }
  });
</script>
`

const reactHook = `import { useEffect, useState } from 'react';

type Variant = { name: string; value: string };

declare global {
  interface Window {
    abTestResults?: Record<string, Variant>;
  }
}

export function useABTest(testId: string): Variant | undefined {
  const [variant, setVariant] = useState<Variant | undefined>(
    () => (typeof window !== 'undefined' ? window.abTestResults?.[testId] : undefined),
  );

  useEffect(() => {
    const onEdits = (e: Event) => {
      const detail = (e as CustomEvent).detail;
      if (detail.testId === testId) setVariant(detail.variant);
    };
    window.addEventListener('{{.Event}}', onEdits);
    return () => window.removeEventListener('{{.Event}}', onEdits);
  }, [testId]);

  return variant;
}
`

const reactUsage = `import { useABTest } from './useABTest';

export default function Hero() {
  const variant = useABTest('{{.TestID}}');
  return <h1>{variant?.value ?? 'Ship Faster'}</h1>;
}
`

const vueComposable = `import { onMounted, onUnmounted, ref } from 'vue';

export function useABTest(testId: string) {
  const variant = ref(window.abTestResults?.[testId]);
  const onEdits = (e: Event) => {
    const detail = (e as CustomEvent).detail;
    if (detail.testId === testId) variant.value = detail.variant;
  };
  onMounted(() => window.addEventListener('{{.Event}}', onEdits));
  onUnmounted(() => window.removeEventListener('{{.Event}}', onEdits));
  return variant;
}

// const hero = useABTest('{{.TestID}}')
`

const svelteStore = `import { readable } from 'svelte/store';

export const abTest = (testId: string) =>
  readable(window.abTestResults?.[testId], (set) => {
    const onEdits = (e: Event) => {
      const detail = (e as CustomEvent).detail;
      if (detail.testId === testId) set(detail.variant);
    };
    window.addEventListener('{{.Event}}', onEdits);
    return () => window.removeEventListener('{{.Event}}', onEdits);
  });

// const hero = abTest('{{.TestID}}')
`
