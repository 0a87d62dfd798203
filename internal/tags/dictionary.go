package tags

// dictionary groups synonyms under the canonical label they normalize to.
// Keys must be lower-case; every canonical label also maps to itself.
var dictionary = map[string][]string{
	"authentication": {
		"auth", "authn", "login", "log in", "logout", "sign in", "signin", "sign-in",
		"signup", "sign up", "sign-up", "register", "registration", "oauth", "oauth2",
		"oidc", "openid", "sso", "jwt", "jwt token", "session", "sessions", "password",
		"passwords", "magic link", "2fa", "mfa", "otp", "supabase auth", "firebase auth",
		"clerk", "nextauth", "next-auth", "auth0", "passport", "passportjs",
	},
	"authorization": {
		"authz", "rbac", "abac", "acl", "permissions", "permission", "roles", "role",
		"access control", "policies", "policy", "rls", "row level security",
		"row-level security", "guards", "route guard",
	},
	"billing": {
		"payment", "payments", "stripe", "paypal", "checkout", "subscription",
		"subscriptions", "invoice", "invoices", "pricing", "plans", "paywall",
		"credit card", "credit cards", "lemonsqueezy", "lemon squeezy", "paddle",
		"webhook stripe", "metered billing", "usage billing",
	},
	"database": {
		"db", "sql", "postgres", "postgresql", "psql", "mysql", "mariadb", "sqlite",
		"mongodb", "mongo", "nosql", "prisma", "drizzle", "orm", "typeorm",
		"sequelize", "knex", "migrations", "migration", "schema", "query", "queries",
		"supabase db", "planetscale", "neon", "indexes", "index", "transactions",
	},
	"storage": {
		"file upload", "file uploads", "upload", "uploads", "s3", "aws s3", "bucket",
		"buckets", "blob", "blobs", "object storage", "cdn", "supabase storage",
		"cloudinary", "uploadthing", "files", "file storage", "images upload",
	},
	"api": {
		"rest", "rest api", "restful", "graphql", "gql", "endpoint", "endpoints",
		"route handler", "route handlers", "api routes", "trpc", "grpc", "openapi",
		"swagger", "http", "fetch", "axios", "webhook", "webhooks",
	},
	"frontend": {
		"ui", "ux", "front-end", "front end", "client", "client side", "client-side",
		"react", "reactjs", "react.js", "next", "nextjs", "next.js", "vue", "vuejs",
		"svelte", "angular", "components", "component", "jsx", "tsx", "html",
		"css", "tailwind", "tailwindcss", "styled-components", "shadcn", "shadcn/ui",
	},
	"backend": {
		"back-end", "back end", "server", "server side", "server-side", "node",
		"nodejs", "node.js", "express", "expressjs", "fastify", "nestjs", "hono",
		"django", "flask", "fastapi", "rails", "laravel", "spring", "go", "golang",
		"server actions", "edge functions", "serverless", "lambda",
	},
	"devops": {
		"ci", "cd", "ci/cd", "cicd", "pipeline", "pipelines", "github actions",
		"gitlab ci", "docker", "dockerfile", "container", "containers", "kubernetes",
		"k8s", "helm", "terraform", "iac", "deploy", "deployment", "deployments",
		"vercel", "netlify", "railway", "fly.io", "render", "aws", "gcp", "azure",
		"nginx", "infra", "infrastructure",
	},
	"testing": {
		"test", "tests", "unit test", "unit tests", "unit testing", "integration test",
		"integration tests", "e2e", "end to end", "end-to-end", "jest", "vitest",
		"mocha", "cypress", "playwright", "testing library", "tdd", "mock", "mocks",
		"mocking", "coverage", "qa",
	},
	"security": {
		"xss", "csrf", "cors", "sql injection", "injection", "owasp", "encryption",
		"hashing", "bcrypt", "argon2", "secrets", "secret management", "env vars",
		"environment variables", "https", "tls", "ssl", "rate limit", "rate limiting",
		"sanitization", "sanitize", "csp",
	},
	"performance": {
		"perf", "optimization", "optimisation", "optimize", "speed", "caching",
		"cache", "memoization", "memo", "lazy loading", "lazy-loading", "code splitting",
		"bundle size", "profiling", "lighthouse", "web vitals", "core web vitals",
		"debounce", "throttle", "redis",
	},
	"ai-ml": {
		"ai", "ml", "artificial intelligence", "machine learning", "llm", "llms",
		"gpt", "openai", "chatgpt", "claude", "anthropic", "gemini", "embeddings",
		"embedding", "rag", "vector", "vectors", "vector db", "vector database",
		"langchain", "prompt", "prompts", "prompt engineering", "agents", "agent",
		"fine-tuning", "fine tuning",
	},
	"mobile": {
		"ios", "android", "react native", "react-native", "expo", "flutter",
		"swift", "swiftui", "kotlin", "mobile app", "mobile apps", "pwa",
		"push notifications",
	},
	"realtime": {
		"real-time", "real time", "websocket", "websockets", "ws", "socket.io",
		"socketio", "sse", "server-sent events", "server sent events", "pubsub",
		"pub/sub", "live", "subscriptions realtime", "supabase realtime", "pusher",
	},
	"email": {
		"mail", "emails", "smtp", "sendgrid", "resend", "mailgun", "postmark",
		"newsletter", "transactional email", "email templates", "react email",
		"nodemailer",
	},
	"analytics": {
		"tracking", "metrics", "telemetry", "events tracking", "google analytics",
		"ga4", "posthog", "mixpanel", "amplitude", "plausible", "dashboards",
		"dashboard", "charts", "charting", "reporting",
	},
	"state-management": {
		"state", "state management", "redux", "redux toolkit", "zustand", "jotai",
		"recoil", "mobx", "context", "react context", "usestate", "usereducer",
		"signals", "react query", "tanstack query", "swr",
	},
	"forms": {
		"form", "form validation", "validation", "zod", "yup", "react hook form",
		"react-hook-form", "formik", "input", "inputs",
	},
	"routing": {
		"router", "routes", "route", "react router", "react-router", "app router",
		"pages router", "navigation", "middleware routing", "redirects", "redirect",
	},
	"typescript": {
		"ts", "types", "typing", "type safety", "type-safety", "generics",
		"interfaces", "tsconfig",
	},
	"javascript": {
		"js", "es6", "es2015", "ecmascript", "vanilla js", "vanillajs", "promises",
		"async await", "async/await",
	},
	"python": {
		"py", "python3", "pip", "pandas", "numpy", "jupyter",
	},
	"search": {
		"full text search", "full-text search", "fts", "elasticsearch", "algolia",
		"meilisearch", "typesense", "filtering", "filters", "autocomplete",
	},
	"internationalization": {
		"i18n", "l10n", "localization", "localisation", "translations", "translation",
		"multilingual", "locale", "locales",
	},
	"accessibility": {
		"a11y", "aria", "screen reader", "screen readers", "wcag", "keyboard navigation",
	},
	"seo": {
		"search engine optimization", "meta tags", "metadata", "sitemap", "robots.txt",
		"open graph", "og image", "structured data",
	},
	"logging": {
		"logs", "log", "logger", "observability", "monitoring", "sentry", "datadog",
		"tracing", "opentelemetry", "otel", "error tracking",
	},
}

// canonicalOrder fixes the iteration order of dictionary when building the
// lookup table, so a synonym listed under two labels always resolves the same way.
var canonicalOrder = []string{
	"authentication", "authorization", "billing", "database", "storage", "api",
	"frontend", "backend", "devops", "testing", "security", "performance", "ai-ml",
	"mobile", "realtime", "email", "analytics", "state-management", "forms",
	"routing", "typescript", "javascript", "python", "search",
	"internationalization", "accessibility", "seo", "logging",
}
